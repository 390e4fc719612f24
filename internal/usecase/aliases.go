package usecase

// foreignAliases maps company names (Korean and English, lower-cased on
// lookup) to US tickers.
var foreignAliases = map[string]string{
	"애플":        "AAPL",
	"apple":     "AAPL",
	"마이크로소프트":   "MSFT",
	"microsoft": "MSFT",
	"구글":        "GOOGL",
	"google":    "GOOGL",
	"알파벳":       "GOOGL",
	"alphabet":  "GOOGL",
	"아마존":       "AMZN",
	"amazon":    "AMZN",
	"메타":        "META",
	"페이스북":      "META",
	"facebook":  "META",
	"엔비디아":      "NVDA",
	"nvidia":    "NVDA",
	"테슬라":       "TSLA",
	"tesla":     "TSLA",
	"넷플릭스":      "NFLX",
	"netflix":   "NFLX",
	"인텔":        "INTC",
	"퀄컴":        "QCOM",
	"브로드컴":      "AVGO",
	"마이크론":      "MU",
	"텍사스인스트루먼트": "TXN",
	"tsmc":      "TSM",
	"대만반도체":     "TSM",
	"jp모건":      "JPM",
	"골드만삭스":     "GS",
	"뱅크오브아메리카":  "BAC",
	"웰스파고":      "WFC",
	"씨티그룹":      "C",
	"비자":        "V",
	"마스터카드":     "MA",
	"페이팔":       "PYPL",
	"버크셔해서웨이":   "BRK-B",
	"존슨앤존슨":     "JNJ",
	"화이자":       "PFE",
	"모더나":       "MRNA",
	"유나이티드헬스":   "UNH",
	"애브비":       "ABBV",
	"일라이릴리":     "LLY",
	"머크":        "MRK",
	"코카콜라":      "KO",
	"펩시코":       "PEP",
	"맥도날드":      "MCD",
	"나이키":       "NKE",
	"스타벅스":      "SBUX",
	"월마트":       "WMT",
	"코스트코":      "COST",
	"홈디포":       "HD",
	"프록터앤갬블":    "PG",
	"보잉":        "BA",
	"캐터필러":      "CAT",
	"록히드마틴":     "LMT",
	"3m":        "MMM",
	"허니웰":       "HON",
	"엑손모빌":      "XOM",
	"셰브론":       "CVX",
	"리비안":       "RIVN",
	"루시드":       "LCID",
	"디즈니":       "DIS",
	"워너브라더스":    "WBD",
	"세일즈포스":     "CRM",
	"어도비":       "ADBE",
	"오라클":       "ORCL",
	"시스코":       "CSCO",
	"팔란티어":      "PLTR",
	"스노우플레이크":   "SNOW",
	"줌":         "ZM",
	"쇼피파이":      "SHOP",
	"스퀘어":       "SQ",
	"블록":        "SQ",
	"로빈후드":      "HOOD",
	"코인베이스":     "COIN",
	"크라우드스트라이크": "CRWD",
	"옥타":        "OKTA",
	"도큐사인":      "DOCU",
	"스포티파이":     "SPOT",
	"에어비앤비":     "ABNB",
	"우버":        "UBER",
	"리프트":       "LYFT",
	"도어대시":      "DASH",
}

// domesticAliases maps KRX company names to their listed codes.
var domesticAliases = map[string]string{
	"삼성전자":                "005930.KS",
	"samsung electronics": "005930.KS",
	"sk하이닉스":              "000660.KS",
	"sk hynix":            "000660.KS",
	"현대차":                 "005380.KS",
	"현대자동차":               "005380.KS",
	"hyundai motor":       "005380.KS",
	"lg에너지솔루션":            "373220.KS",
	"기아":                  "000270.KS",
	"셀트리온":                "068270.KS",
	"kb금융":                "105560.KS",
	"신한지주":                "055550.KS",
	"포스코홀딩스":              "005490.KS",
	"naver":               "035420.KS",
	"네이버":                 "035420.KS",
	"카카오":                 "035720.KS",
	"kakao":               "035720.KS",
	"lg전자":                "066570.KS",
	"삼성sdi":               "006400.KS",
	"삼성바이오로직스":            "207940.KS",
	"현대모비스":               "012330.KS",
	"한국전력":                "015760.KS",
	"sk이노베이션":             "096770.KS",
	"삼성물산":                "028260.KS",
	"sk텔레콤":               "017670.KS",
	"하나금융지주":              "086790.KS",
	"우리금융지주":              "316140.KS",
	"lg화학":                "051910.KS",
	"한화에어로스페이스":           "012450.KS",
	"크래프톤":                "259960.KS",
	"두산에너빌리티":             "034020.KS",
}

// requestSuffixes are trailing request phrases stripped before matching.
var requestSuffixes = []string{
	"분석해주세요", "분석해줘", "분석해", "분석하기", "분석",
	"알려주세요", "알려줘", "조회해줘", "조회해", "조회",
	"검색해줘", "검색해", "검색", "찾아줘", "찾아",
	"보여주세요", "보여줘",
	"analyze this", "analyze", "analysis", "look up", "lookup",
	"please", "stock", "shares",
}

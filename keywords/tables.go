package keywords

// AlertKeywords flag breaking or high-severity headlines. Order matters: the first hit wins.
var AlertKeywords = []string{
	"breaking",
	"urgent",
	"invasion",
	"nuclear",
	"missile",
	"airstrike",
	"coup",
	"assassination",
	"martial law",
	"state of emergency",
	"mobilization",
	"evacuation",
	"explosion",
	"terror attack",
	"hostage",
	"casualties",
	"war",
}

// RegionMapping ties a gazetteer keyword to the region it implies.
type RegionMapping struct {
	Keyword string
	Region  string
}

// Regions is the gazetteer used by DetectRegion, checked in order.
var Regions = []RegionMapping{
	{"ukraine", "Ukraine"},
	{"kyiv", "Ukraine"},
	{"kiev", "Ukraine"},
	{"zelensky", "Ukraine"},
	{"crimea", "Ukraine"},
	{"donbas", "Ukraine"},
	{"russia", "Russia"},
	{"moscow", "Russia"},
	{"kremlin", "Russia"},
	{"putin", "Russia"},
	{"israel", "Middle East"},
	{"gaza", "Middle East"},
	{"iran", "Middle East"},
	{"tehran", "Middle East"},
	{"syria", "Middle East"},
	{"lebanon", "Middle East"},
	{"hezbollah", "Middle East"},
	{"hamas", "Middle East"},
	{"yemen", "Middle East"},
	{"houthi", "Middle East"},
	{"iraq", "Middle East"},
	{"saudi", "Middle East"},
	{"taiwan", "Taiwan"},
	{"taipei", "Taiwan"},
	{"china", "China"},
	{"beijing", "China"},
	{"xi jinping", "China"},
	{"north korea", "Korea"},
	{"pyongyang", "Korea"},
	{"south korea", "Korea"},
	{"seoul", "Korea"},
	{"india", "South Asia"},
	{"pakistan", "South Asia"},
	{"kashmir", "South Asia"},
	{"afghanistan", "South Asia"},
	{"venezuela", "Latin America"},
	{"mexico", "Latin America"},
	{"brazil", "Latin America"},
	{"colombia", "Latin America"},
	{"cuba", "Latin America"},
	{"sudan", "Africa"},
	{"ethiopia", "Africa"},
	{"somalia", "Africa"},
	{"nigeria", "Africa"},
	{"sahel", "Africa"},
	{"congo", "Africa"},
	{"nato", "Europe"},
	{"european union", "Europe"},
	{"brussels", "Europe"},
	{"germany", "Europe"},
	{"france", "Europe"},
	{"poland", "Europe"},
}

// TopicMapping ties a keyword to a topic tag.
type TopicMapping struct {
	Keyword string
	Topic   string
}

// Topics maps keywords to tags. Several keywords share a tag.
var Topics = []TopicMapping{
	{"election", "elections"},
	{"ballot", "elections"},
	{"referendum", "elections"},
	{"military", "military"},
	{"troops", "military"},
	{"army", "military"},
	{"navy", "military"},
	{"drone", "military"},
	{"cyber", "cyber"},
	{"hack", "cyber"},
	{"ransomware", "cyber"},
	{"data breach", "cyber"},
	{"oil", "energy"},
	{"gas", "energy"},
	{"opec", "energy"},
	{"pipeline", "energy"},
	{"sanction", "trade"},
	{"tariff", "trade"},
	{"embargo", "trade"},
	{"export controls", "trade"},
	{"ai", "ai"},
	{"artificial intelligence", "ai"},
	{"openai", "ai"},
	{"chatbot", "ai"},
	{"inflation", "economy"},
	{"federal reserve", "economy"},
	{"interest rate", "economy"},
	{"recession", "economy"},
	{"refugee", "humanitarian"},
	{"migrant", "humanitarian"},
	{"famine", "humanitarian"},
	{"humanitarian", "humanitarian"},
	{"uranium", "nuclear"},
	{"enrichment", "nuclear"},
	{"warhead", "nuclear"},
	{"protest", "unrest"},
	{"riot", "unrest"},
	{"unrest", "unrest"},
	{"earthquake", "disaster"},
	{"hurricane", "disaster"},
	{"wildfire", "disaster"},
	{"flood", "disaster"},
}

// PrioritySources are outlets whose reporting is ranked higher, by display name.
var PrioritySources = []string{
	"reuters",
	"associated press",
	"ap news",
	"bbc",
	"bbc news",
	"bbc world",
	"financial times",
	"wall street journal",
	"bloomberg",
	"the economist",
	"al jazeera",
	"npr",
	"the guardian",
	"new york times",
	"washington post",
	"politico",
	"defense one",
	"war on the rocks",
	"foreign policy",
	"council on foreign relations",
	"csis",
	"bellingcat",
}

// PriorityDomains match on the article link's host, including subdomains.
var PriorityDomains = []string{
	"reuters.com",
	"apnews.com",
	"bbc.co.uk",
	"bbc.com",
	"ft.com",
	"wsj.com",
	"bloomberg.com",
	"economist.com",
	"aljazeera.com",
	"npr.org",
	"theguardian.com",
	"nytimes.com",
	"washingtonpost.com",
	"politico.com",
	"defenseone.com",
	"warontherocks.com",
	"foreignpolicy.com",
	"cfr.org",
	"csis.org",
	"bellingcat.com",
	"whitehouse.gov",
	"state.gov",
	"defense.gov",
}

// ClickbaitPatterns are regular expressions that cost a headline ranking points.
var ClickbaitPatterns = []string{
	`you won['’]?t believe`,
	`\bshocking\b`,
	`what happens next`,
	`this one (weird )?trick`,
	`\bjaw[- ]?dropping\b`,
	`will blow your mind`,
	`^\d+ (things|reasons|ways)\b`,
	`\bgone wrong\b`,
	`\bmust[- ]see\b`,
}

package validator

// knownCountries is the open-world list of recognised country and region
// codes. Anything else only produces a warning.
var knownCountries = toSet(
	// Regional groupings
	"GLOBAL", "EMEA", "APAC", "AMER",

	// ISO 3166-1 alpha-2 (common)
	"AR", "AU", "AT", "BE", "BR", "CA", "CL", "CN", "CO", "CZ", "DK", "EG",
	"FI", "FR", "DE", "GR", "HK", "IN", "ID", "IL", "IT", "JP", "MY", "MX",
	"NL", "NZ", "NO", "PE", "PH", "PL", "PT", "RO", "RU", "SG", "ZA", "KR",
	"ES", "SE", "CH", "TW", "TH", "TR", "UA", "GB", "US", "VN",

	// ISO 3166-1 alpha-3
	"AFG", "AGO", "ALB", "AND", "ARE", "ARG", "ARM", "AUS", "AUT", "AZE",
	"BEL", "BGD", "BGR", "BHR", "BIH", "BLR", "BOL", "BRA", "BTN", "BWA",
	"CAN", "CHE", "CHL", "CHN", "COL", "CRI", "CUB", "CYP", "CZE",
	"DEU", "DNK", "DOM", "DZA", "ECU", "EGY", "ESP", "EST", "ETH",
	"FIN", "FRA", "GAB", "GBR", "GEO", "GHA", "GRC", "GTM",
	"HKG", "HND", "HRV", "HUN",
	"IDN", "IND", "IRL", "IRN", "IRQ", "ISL", "ISR", "ITA",
	"JPN", "JOR", "KAZ", "KEN", "KGZ", "KHM", "KOR", "KWT",
	"LBN", "LBY", "LKA", "LTU", "LUX", "LVA",
	"MAR", "MDA", "MEX", "MKD", "MLI", "MMR", "MNG", "MOZ",
	"NGA", "NIC", "NLD", "NOR", "NPL", "NZL",
	"OMN", "PAK", "PAN", "PER", "PHL", "POL", "PRT", "PRY",
	"QAT", "ROU", "RUS", "RWA",
	"SAU", "SDN", "SEN", "SGP", "SRB", "SVK", "SVN", "SWE",
	"THA", "TJK", "TKM", "TUN", "TUR", "TWN",
	"UGA", "UKR", "URY", "USA", "UZB",
	"VEN", "VNM", "YEM", "ZAF", "ZMB", "ZWE",
)

// KnownCountry reports whether code is in the recognised list.
func KnownCountry(code string) bool {
	_, ok := knownCountries[code]
	return ok
}

func toSet(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

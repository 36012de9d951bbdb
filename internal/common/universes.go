package common

import "sort"

// Default ticker universes. The primary set covers large-cap US equities,
// the expanded set adds broader sector coverage for analytics, and the IPO
// set tracks recently listed companies. All three can be overridden via the
// [universes] config section.

var defaultPrimaryUniverse = []string{
	// Technology
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA", "AVGO", "ORCL", "ADBE",
	"CRM", "CSCO", "ACN", "AMD", "INTC", "IBM", "NOW", "QCOM", "TXN", "INTU",
	// Financial Services
	"BRK-B", "JPM", "V", "MA", "BAC", "WFC", "GS", "MS", "SCHW", "BLK",
	"C", "AXP", "SPGI", "PGR", "CB", "MMC", "AON", "USB", "TFC", "PNC",
	// Healthcare
	"UNH", "JNJ", "LLY", "ABBV", "MRK", "TMO", "ABT", "PFE", "DHR", "BMY",
	"AMGN", "CVS", "ELV", "CI", "MDT", "GILD", "REGN", "ISRG", "VRTX", "HUM",
	// Consumer Discretionary
	"HD", "MCD", "NKE", "SBUX", "TGT", "LOW", "TJX", "BKNG", "CMG", "MAR",
	// Consumer Staples
	"WMT", "PG", "KO", "PEP", "COST", "PM", "MO", "CL", "MDLZ", "KHC",
	// Energy
	"XOM", "CVX", "COP", "SLB", "EOG", "MPC", "PSX", "VLO", "OXY", "HAL",
	// Industrials
	"BA", "UPS", "HON", "UNP", "RTX", "CAT", "DE", "LMT", "GE", "MMM",
	// Communications & Media
	"T", "VZ", "TMUS", "CMCSA", "DIS", "NFLX",
	// Utilities & Real Estate
	"NEE", "DUK", "SO", "AEP", "PLD", "AMT", "CCI", "EQIX",
}

var defaultExpandedExtra = []string{
	// Additional Technology
	"SNOW", "PLTR", "NET", "DDOG", "ZS", "CRWD", "PANW", "FTNT", "OKTA", "MDB",
	"TEAM", "WDAY", "SNPS", "CDNS", "ADSK", "DELL", "HPE", "ANET", "MRVL",
	// Additional Healthcare
	"ZTS", "MCK", "HCA", "IDXX", "BDX", "SYK", "BSX", "EW", "RMD",
	"DXCM", "ALGN", "HOLX", "ILMN", "MRNA", "BNTX", "BIIB", "ALNY", "EXAS",
	// Additional Financial
	"ICE", "CME", "COIN", "HOOD", "SOFI", "AFRM", "PYPL", "FIS",
	"ADP", "PAYX", "ALL", "TRV", "MET", "PRU", "AFL", "AIG",
	// Additional Consumer
	"EBAY", "ETSY", "CHWY", "SHOP", "MELI", "SE", "PDD", "BABA",
	"UBER", "LYFT", "ABNB", "DASH", "DKNG", "MGM", "WYNN", "LVS",
	// Additional Industrials
	"FDX", "NSC", "CSX", "ODFL", "DAL", "UAL", "AAL", "LUV",
	"EMR", "ITW", "PH", "ROK", "ETN",
	// Semiconductors
	"ASML", "TSM", "MU", "LRCX", "AMAT", "KLAC", "NXPI", "ADI", "MCHP", "MPWR",
	// Energy & Materials
	"FANG", "DVN", "BKR", "FCX", "NEM", "NUE", "STLD", "CLF",
	"APD", "LIN", "ECL", "DD", "DOW", "PPG", "SHW", "NTR",
	// EVs & Clean Energy
	"RIVN", "LCID", "NIO", "XPEV", "LI", "ENPH", "SEDG", "RUN", "FSLR",
	// Biotech
	"BMRN", "INCY", "SRPT", "NBIX", "JAZZ", "UTHR", "RARE", "FOLD",
}

var defaultIPOUniverse = []string{
	"RDDT", "ARM",
	"KVUE", "CART", "VRT",
	"TPG", "FRSH",
	"RIVN", "COIN", "RBLX", "ABNB", "DASH", "SNOW", "PLTR", "AI", "BROS",
	"DNUT", "ASAN", "DOCN", "ZI", "OPEN",
	"BIGC", "FROG", "NCNO", "U", "CRWD", "PINS", "CHWY", "UBER", "LYFT", "BYND", "SPCE",
}

// applyUniverseDefaults fills any universe left empty by the config files.
// The expanded universe always includes the primary set.
func applyUniverseDefaults(config *Config) {
	if len(config.Universes.Primary) == 0 {
		config.Universes.Primary = defaultPrimaryUniverse
	}
	if len(config.Universes.Expanded) == 0 {
		config.Universes.Expanded = append(append([]string{}, config.Universes.Primary...), defaultExpandedExtra...)
	}
	if len(config.Universes.IPOs) == 0 {
		config.Universes.IPOs = defaultIPOUniverse
	}
}

// All returns the union of the three universes, deduplicated and sorted.
func (u *UniversesConfig) All() []string {
	seen := make(map[string]struct{})
	var all []string
	for _, list := range [][]string{u.Primary, u.Expanded, u.IPOs} {
		for _, t := range list {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				all = append(all, t)
			}
		}
	}
	sort.Strings(all)
	return all
}

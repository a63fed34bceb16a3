package basketball_nba

// basketball-reference team codes. These differ from ESPN in a few places
// (BRK, CHO, PHO) and include franchises that have since moved or folded.
var teamNames = map[string]string{
	"ATL": "Atlanta Hawks",
	"BOS": "Boston Celtics",
	"BRK": "Brooklyn Nets",
	"CHO": "Charlotte Hornets",
	"CHI": "Chicago Bulls",
	"CLE": "Cleveland Cavaliers",
	"DAL": "Dallas Mavericks",
	"DEN": "Denver Nuggets",
	"DET": "Detroit Pistons",
	"GSW": "Golden State Warriors",
	"HOU": "Houston Rockets",
	"IND": "Indiana Pacers",
	"LAC": "Los Angeles Clippers",
	"LAL": "Los Angeles Lakers",
	"MEM": "Memphis Grizzlies",
	"MIA": "Miami Heat",
	"MIL": "Milwaukee Bucks",
	"MIN": "Minnesota Timberwolves",
	"NOP": "New Orleans Pelicans",
	"NYK": "New York Knicks",
	"OKC": "Oklahoma City Thunder",
	"ORL": "Orlando Magic",
	"PHI": "Philadelphia 76ers",
	"PHO": "Phoenix Suns",
	"POR": "Portland Trail Blazers",
	"SAC": "Sacramento Kings",
	"SAS": "San Antonio Spurs",
	"TOR": "Toronto Raptors",
	"UTA": "Utah Jazz",
	"WAS": "Washington Wizards",

	// former franchises and names
	"CHA": "Charlotte Bobcats",
	"CHH": "Charlotte Hornets",
	"NJN": "New Jersey Nets",
	"NOH": "New Orleans Hornets",
	"NOK": "New Orleans/Oklahoma City Hornets",
	"SEA": "Seattle SuperSonics",
	"VAN": "Vancouver Grizzlies",
	"WSB": "Washington Bullets",
	"KCK": "Kansas City Kings",
	"SDC": "San Diego Clippers",
	"BUF": "Buffalo Braves",
	"NOJ": "New Orleans Jazz",
	"SFW": "San Francisco Warriors",
	"STL": "St. Louis Hawks",
	"SYR": "Syracuse Nationals",
	"MNL": "Minneapolis Lakers",
	"CIN": "Cincinnati Royals",
	"BAL": "Baltimore Bullets",

	// rows that total a traded player's season
	"TOT": "Multiple teams",
	"2TM": "Two teams",
	"3TM": "Three teams",
	"4TM": "Four teams",
}

// GetTeamName returns the full name for a team code
func GetTeamName(abbr string) string {
	if name, ok := teamNames[abbr]; ok {
		return name
	}
	return abbr // Return original if not found
}

// IsAggregateTeam reports whether a code marks a multi-team season total
func IsAggregateTeam(abbr string) bool {
	switch abbr {
	case "TOT", "2TM", "3TM", "4TM":
		return true
	}
	return false
}

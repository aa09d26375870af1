package auction

// States is the fixed iteration order used by the event generator. Changing
// the order changes every generated calendar.
var States = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

var fallbackCities = []string{"Downtown", "Metro Area", "City Center"}

var stateCities = map[string][]string{
	"CA": {"Los Angeles", "San Francisco", "San Diego", "Sacramento"},
	"TX": {"Houston", "Dallas", "Austin", "San Antonio"},
	"FL": {"Miami", "Orlando", "Tampa", "Jacksonville"},
	"NY": {"New York", "Albany", "Buffalo", "Rochester"},
	"AZ": {"Phoenix", "Tucson", "Mesa", "Scottsdale"},
	"NC": {"Charlotte", "Raleigh", "Greensboro", "Durham"},
	"AL": {"Birmingham", "Montgomery", "Mobile", "Huntsville"},
	"AK": {"Anchorage", "Fairbanks", "Juneau", "Wasilla"},
	"AR": {"Little Rock", "Fort Smith", "Fayetteville", "Springdale"},
	"CO": {"Denver", "Colorado Springs", "Aurora", "Fort Collins"},
	"CT": {"Hartford", "Bridgeport", "New Haven", "Stamford"},
	"DE": {"Wilmington", "Dover", "Newark", "Middletown"},
	"GA": {"Atlanta", "Augusta", "Columbus", "Savannah"},
	"HI": {"Honolulu", "Hilo", "Kailua", "Kaneohe"},
	"ID": {"Boise", "Meridian", "Nampa", "Idaho Falls"},
	"IL": {"Chicago", "Aurora", "Rockford", "Joliet"},
	"IN": {"Indianapolis", "Fort Wayne", "Evansville", "South Bend"},
	"IA": {"Des Moines", "Cedar Rapids", "Davenport", "Sioux City"},
	"KS": {"Wichita", "Overland Park", "Kansas City", "Topeka"},
	"KY": {"Louisville", "Lexington", "Bowling Green", "Owensboro"},
	"LA": {"New Orleans", "Baton Rouge", "Shreveport", "Lafayette"},
	"ME": {"Portland", "Lewiston", "Bangor", "South Portland"},
	"MD": {"Baltimore", "Frederick", "Rockville", "Gaithersburg"},
	"MA": {"Boston", "Worcester", "Springfield", "Lowell"},
	"MI": {"Detroit", "Grand Rapids", "Warren", "Sterling Heights"},
	"MN": {"Minneapolis", "Saint Paul", "Rochester", "Duluth"},
	"MS": {"Jackson", "Gulfport", "Southaven", "Hattiesburg"},
	"MO": {"Kansas City", "Saint Louis", "Springfield", "Independence"},
	"MT": {"Billings", "Missoula", "Great Falls", "Bozeman"},
	"NE": {"Omaha", "Lincoln", "Bellevue", "Grand Island"},
	"NV": {"Las Vegas", "Henderson", "Reno", "North Las Vegas"},
	"NH": {"Manchester", "Nashua", "Concord", "Dover"},
	"NJ": {"Newark", "Jersey City", "Paterson", "Elizabeth"},
	"NM": {"Albuquerque", "Las Cruces", "Rio Rancho", "Santa Fe"},
	"ND": {"Fargo", "Bismarck", "Grand Forks", "Minot"},
	"OH": {"Columbus", "Cleveland", "Cincinnati", "Toledo"},
	"OK": {"Oklahoma City", "Tulsa", "Norman", "Broken Arrow"},
	"OR": {"Portland", "Eugene", "Salem", "Gresham"},
	"PA": {"Philadelphia", "Pittsburgh", "Allentown", "Erie"},
	"RI": {"Providence", "Warwick", "Cranston", "Pawtucket"},
	"SC": {"Charleston", "Columbia", "North Charleston", "Mount Pleasant"},
	"SD": {"Sioux Falls", "Rapid City", "Aberdeen", "Brookings"},
	"TN": {"Nashville", "Memphis", "Knoxville", "Chattanooga"},
	"UT": {"Salt Lake City", "West Valley City", "Provo", "West Jordan"},
	"VT": {"Burlington", "Essex", "South Burlington", "Colchester"},
	"VA": {"Virginia Beach", "Norfolk", "Chesapeake", "Richmond"},
	"WA": {"Seattle", "Spokane", "Tacoma", "Vancouver"},
	"WV": {"Charleston", "Huntington", "Parkersburg", "Morgantown"},
	"WI": {"Milwaukee", "Madison", "Green Bay", "Kenosha"},
	"WY": {"Cheyenne", "Casper", "Laramie", "Gillette"},
}

// CitiesFor returns the city list used for a state's events.
func CitiesFor(state string) []string {
	if cities, ok := stateCities[state]; ok {
		return cities
	}
	return fallbackCities
}

// IsState reports whether code is one of the 50 state codes.
func IsState(code string) bool {
	for _, s := range States {
		if s == code {
			return true
		}
	}
	return false
}

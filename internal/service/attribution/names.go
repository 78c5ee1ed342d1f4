package attribution

// displayNames maps blocklist source tags to their human-readable names.
// Sources without an entry fall back to the raw tag.
var displayNames = map[string]string{
	"bl_tld":                    "Top Level Domain list",
	"bl_hexxium":                "Hexxium Creations Threat List",
	"bl_disconnectmalvertising": "Disconnect Malvertising",
	"bl_easylist":               "EasyList",
	"bl_easyprivacy":            "EasyPrivacy",
	"bl_fbannoyance":            "Fanboy's Annoyance List",
	"bl_fbenhanced":             "Fanboy's Enhanced Tracking List",
	"bl_fbsocial":               "Fanboy's Social Blocking List",
	"bl_hphosts":                "hpHosts Ad and Tracking",
	"bl_malwaredomainlist":      "Malware Domain List",
	"bl_malwaredomains":         "Malware Domains",
	"bl_pglyoyo":                "Peter Lowe's Ad List",
	"bl_someonewhocares":        "Dan Pollock's hosts file",
	"bl_spam404":                "Spam404",
	"bl_swissransom":            "abuse.ch Ransomware Tracker",
	"bl_winhelp2002":            "MVPS Hosts",
	"bl_windowsspyblocker":      "Windows Spy Blocker",
}

// DisplayName returns the readable name for a blocklist source tag,
// falling back to the tag itself when unregistered.
func DisplayName(source string) string {
	if name, ok := displayNames[source]; ok {
		return name
	}
	return source
}

package crawl

import (
	"net/url"
	"strings"
)

// locationCodes maps a search location to the country code used by the URL
// filter.
var locationCodes = map[string]string{
	"Switzerland":    "ch",
	"Chile":          "cl",
	"Austria":        "at",
	"Germany":        "de",
	"France":         "fr",
	"Italy":          "it",
	"United States":  "us",
	"United Kingdom": "uk",
}

// CountryCode resolves a location name to its country code. Unknown locations
// fall back to "ch".
func CountryCode(location string) string {
	if code, ok := locationCodes[location]; ok {
		return code
	}
	return "ch"
}

// keepURL decides whether a result URL plausibly targets the given country.
// A URL is kept when its host ends in the country TLD, when a ".cc/" segment
// appears in the path, or when the host is a .com domain.
func keepURL(rawURL, countryCode string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())

	if strings.HasSuffix(host, "."+countryCode) {
		return true
	}
	if strings.Contains(strings.ToLower(parsed.Path), "."+countryCode+"/") {
		return true
	}
	return strings.HasSuffix(host, ".com")
}

// contentBlacklist holds lowercase markers of pages that are clearly not
// product offers: encyclopedias, news, forums and institutional pages, in the
// four languages the crawler targets (en/de/fr/it).
var contentBlacklist = []string{
	// English
	"wikipedia",
	"news article",
	"press release",
	"forum",
	"clinical trial",
	"package insert",
	"prescribing information",
	// German
	"nachrichten",
	"pressemitteilung",
	"fachinformation",
	"gebrauchsinformation",
	"beipackzettel",
	// French
	"actualités",
	"communiqué de presse",
	"notice d'emballage",
	"information professionnelle",
	// Italian
	"notizie",
	"comunicato stampa",
	"foglietto illustrativo",
	"informazione professionale",
}

// passesBlacklist reports whether the page content avoids all blacklist
// markers.
func passesBlacklist(content string) bool {
	lowered := strings.ToLower(content)
	for _, marker := range contentBlacklist {
		if strings.Contains(lowered, marker) {
			return false
		}
	}
	return true
}

package content

import "regexp"

var (
	scriptElement  = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	javascriptURI  = regexp.MustCompile(`(?i)javascript:`)
	inlineHandler  = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	htmlDataURI    = regexp.MustCompile(`(?i)data:text/html`)
	unclosedScript = regexp.MustCompile(`(?is)<script\b[^>]*>`)
)

// Sanitize strips script elements, javascript: and data:text/html URIs and
// inline event handler attributes from free text, repeating until nothing
// changes so nested payloads cannot reassemble. It is a blunt filter for
// stored article fields; rendered HTML goes through markdown.ToHTML's policy.
func Sanitize(s string) string {
	for {
		next := strip(s)
		if next == s {
			return s
		}
		s = next
	}
}

func strip(s string) string {
	s = scriptElement.ReplaceAllString(s, "")
	s = unclosedScript.ReplaceAllString(s, "")
	s = javascriptURI.ReplaceAllString(s, "")
	s = inlineHandler.ReplaceAllString(s, "")
	s = htmlDataURI.ReplaceAllString(s, "")
	return s
}

// sanitizePtr applies Sanitize to an optional field in place.
func sanitizePtr(p *string) {
	if p != nil {
		*p = Sanitize(*p)
	}
}

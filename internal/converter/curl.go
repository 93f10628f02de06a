package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/studiowebux/pepe/internal/request"
)

// ParsedCurl holds the request fields extracted from a curl command line.
type ParsedCurl struct {
	Method  string
	URL     string
	Headers []request.Header
	Body    string
	Auth    *request.BasicAuth
	Proxy   string
}

var (
	urlFlagRe    = regexp.MustCompile(`--url\s+['"]?([^'" ]+)['"]?`)
	bareURLRe    = regexp.MustCompile(`(https?://[^\s'"\\]+)`)
	methodRes    = []*regexp.Regexp{regexp.MustCompile(`--request\s+([A-Za-z]+)`), regexp.MustCompile(`-X\s+([A-Za-z]+)`)}
	headerRes    = []*regexp.Regexp{regexp.MustCompile(`-H\s+['"]([^'"]+)['"]`), regexp.MustCompile(`--header\s+['"]([^'"]+)['"]`)}
	// Quoted forms first; the bare forms catch commands re-joined from argv
	// where the shell already stripped the quotes.
	bodyRes = []*regexp.Regexp{
		regexp.MustCompile(`--data-raw\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`--data-binary\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`--data\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`-d\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`--data(?:-raw|-binary)?\s+(\S+)`),
		regexp.MustCompile(`-d\s+(\S+)`),
	}
	userRes      = []*regexp.Regexp{regexp.MustCompile(`--user\s+['"]?([^'" ]+)['"]?`), regexp.MustCompile(`-u\s+['"]?([^'" ]+)['"]?`)}
	proxyFlagRes = []*regexp.Regexp{regexp.MustCompile(`--proxy\s+['"]?([^'" ]+)['"]?`), regexp.MustCompile(`-x\s+['"]?([^'" ]+)['"]?`)}
)

// ParseCurl extracts method, URL, headers, body, credentials and proxy from
// a curl command string, so a copy-pasted curl invocation can be replayed
// under load. Flags curl would accept but the load generator has no use
// for (output, verbosity, retries) are ignored.
func ParseCurl(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{Method: "GET"}

	// Handle multiline commands with backslash continuations.
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\n", " ")
	curlCmd = strings.TrimSpace(curlCmd)
	curlCmd = regexp.MustCompile(`^curl\s+`).ReplaceAllString(curlCmd, "")

	if matches := urlFlagRe.FindStringSubmatch(curlCmd); len(matches) > 1 {
		parsed.URL = strings.Trim(matches[1], `'"`)
	}
	if parsed.URL == "" {
		if matches := bareURLRe.FindStringSubmatch(curlCmd); len(matches) > 1 {
			parsed.URL = strings.Trim(matches[1], `'"`)
		}
	}
	if parsed.URL == "" {
		return nil, fmt.Errorf("could not find URL in curl command")
	}

	for _, re := range methodRes {
		if matches := re.FindStringSubmatch(curlCmd); len(matches) > 1 {
			parsed.Method = strings.ToUpper(matches[1])
			break
		}
	}

	for _, re := range headerRes {
		for _, match := range re.FindAllStringSubmatch(curlCmd, -1) {
			h, err := request.ParseHeaderLine(match[1])
			if err != nil {
				continue
			}
			parsed.Headers = append(parsed.Headers, h)
		}
	}

	for _, re := range bodyRes {
		if matches := re.FindStringSubmatch(curlCmd); len(matches) > 1 {
			body := matches[1]
			body = strings.ReplaceAll(body, `\"`, `"`)
			body = strings.ReplaceAll(body, `\n`, "\n")
			body = strings.ReplaceAll(body, `\t`, "\t")
			parsed.Body = body
			break
		}
	}

	// curl assumes POST when data is present and no method was given.
	if parsed.Method == "GET" && parsed.Body != "" {
		parsed.Method = "POST"
	}

	for _, re := range userRes {
		if matches := re.FindStringSubmatch(curlCmd); len(matches) > 1 {
			auth, err := request.ParseBasicAuth(strings.Trim(matches[1], `'"`))
			if err != nil {
				return nil, err
			}
			parsed.Auth = auth
			break
		}
	}

	for _, re := range proxyFlagRes {
		if matches := re.FindStringSubmatch(curlCmd); len(matches) > 1 {
			parsed.Proxy = strings.Trim(matches[1], `'"`)
			break
		}
	}

	return parsed, nil
}

// Apply copies the parsed fields onto a template. Existing template values
// act as defaults; the curl command wins where it specifies something.
func (p *ParsedCurl) Apply(tpl *request.Template) {
	tpl.Method = p.Method
	tpl.URL = p.URL
	tpl.Headers = append(tpl.Headers, p.Headers...)
	if p.Body != "" {
		tpl.Body = []byte(p.Body)
	}
	if p.Auth != nil {
		tpl.Auth = p.Auth
	}
	if p.Proxy != "" {
		tpl.ProxyURL = p.Proxy
	}
}

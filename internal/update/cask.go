package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	descriptorSentinel   = "cask"
	descriptorTerminator = "end"
	minDescriptorLines   = 4
)

var requiredDescriptorKeys = []string{"name", "url", "sha256", "version"}

// Token is a single key/value pair from a package descriptor
type Token struct {
	Key   string
	Value string
	Line  int // 1-based index among the non-blank lines
}

// TokenizeDescriptor splits descriptor text into key/value tokens.
//
// Blank lines are dropped and the rest trimmed. The first remaining line must
// start with "cask" and the last must be "end". Interior lines of the form
// key 'value' become tokens; anything else is skipped.
func TokenizeDescriptor(text string) ([]Token, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < minDescriptorLines {
		return nil, newFailure(KindManifestUnavailable,
			fmt.Sprintf("descriptor has %d non-blank lines, need at least %d", len(lines), minDescriptorLines), nil)
	}
	if !strings.HasPrefix(lines[0], descriptorSentinel) {
		return nil, newFailure(KindManifestUnavailable, "descriptor does not start with cask", nil)
	}
	if lines[len(lines)-1] != descriptorTerminator {
		return nil, newFailure(KindManifestUnavailable, "descriptor does not finish with end", nil)
	}

	var tokens []Token
	for i, line := range lines[1 : len(lines)-1] {
		key, value, ok := tokenizeLine(line)
		if !ok {
			continue
		}
		tokens = append(tokens, Token{Key: key, Value: value, Line: i + 2})
	}
	return tokens, nil
}

// tokenizeLine reads `key 'value'` from the start of line. The key is a run of
// letters, digits and underscores; the value is non-empty and holds no quote.
func tokenizeLine(line string) (key, value string, ok bool) {
	i := 0
	for i < len(line) && isWordByte(line[i]) {
		i++
	}
	if i == 0 {
		return "", "", false
	}
	key = line[:i]

	j := i
	for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
		j++
	}
	if j == i || j >= len(line) || line[j] != '\'' {
		return "", "", false
	}

	rest := line[j+1:]
	end := strings.IndexByte(rest, '\'')
	if end <= 0 {
		return "", "", false
	}
	return key, rest[:end], true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ValidateDescriptor builds a PackageDescriptor from tokens, requiring name,
// url, sha256 and version. Later tokens override earlier ones with the same key.
func ValidateDescriptor(tokens []Token) (*PackageDescriptor, error) {
	props := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		props[tok.Key] = tok.Value
	}

	var missing []string
	for _, key := range requiredDescriptorKeys {
		if props[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, newFailure(KindManifestUnavailable,
			fmt.Sprintf("descriptor is missing required keys: %s", strings.Join(missing, ", ")), nil)
	}

	return &PackageDescriptor{
		Name:       props["name"],
		URL:        props["url"],
		SHA256:     props["sha256"],
		Version:    props["version"],
		Properties: props,
	}, nil
}

// ParseDescriptor tokenizes and validates descriptor text
func ParseDescriptor(text string) (*PackageDescriptor, error) {
	tokens, err := TokenizeDescriptor(text)
	if err != nil {
		return nil, err
	}
	return ValidateDescriptor(tokens)
}

// FetchPackageDescriptor retrieves and parses the descriptor at rawURL
func FetchPackageDescriptor(ctx context.Context, client *http.Client, rawURL string) (*PackageDescriptor, error) {
	if client == nil {
		client = NewHTTPClient(DefaultFeedTimeout)
	}

	body, err := open(ctx, client, rawURL)
	if err != nil {
		return nil, newFailure(KindManifestUnavailable, "failed to retrieve package descriptor", err)
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(io.LimitReader(body, maxDescriptorBytes))
	if err != nil {
		return nil, newFailure(KindManifestUnavailable, "failed to read package descriptor", err)
	}

	return ParseDescriptor(string(data))
}

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed sql/*.sql phrases.txt
var FS embed.FS

// MigrationFiles lists the embedded migration names in apply order.
func MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(FS, "sql")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, "sql/"+e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Migration returns the SQL text of one embedded migration.
func Migration(name string) (string, error) {
	b, err := FS.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SeedPhrase is one default phrase shipped with the server.
type SeedPhrase struct {
	Language string
	Content  string
}

// SeedPhrases parses the embedded default phrase list. Lines are
// "language|content"; blanks and #-comments are skipped.
func SeedPhrases() ([]SeedPhrase, error) {
	f, err := FS.Open("phrases.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []SeedPhrase
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		lang, content, ok := strings.Cut(s, "|")
		if !ok {
			continue
		}
		lang = strings.TrimSpace(lang)
		content = strings.TrimSpace(content)
		if lang == "" || content == "" {
			continue
		}
		out = append(out, SeedPhrase{Language: lang, Content: content})
	}
	return out, sc.Err()
}

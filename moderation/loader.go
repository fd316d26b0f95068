package moderation

import (
	"bufio"
	"bytes"
	"chat-relay/errors"
	"io/fs"
	"path"
	"strings"
)

// CensoredData carries the result of the loading process including metadata for logging.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads blacklisted words from a filesystem.
type CensoredLoader struct {
	fs fs.FS
}

func NewCensoredLoader(f fs.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

// LoadAll reads one word per line from name.
// When name is a directory, every .txt file is read as a language dictionary ("fr.txt" -> "fr").
func (l *CensoredLoader) LoadAll(name string) (*CensoredData, error) {
	info, err := fs.Stat(l.fs, name)
	if err != nil {
		return nil, err
	}

	var files []string
	if info.IsDir() {
		entries, err := fs.ReadDir(l.fs, name)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
				continue
			}
			files = append(files, path.Join(name, entry.Name()))
		}
	} else {
		files = append(files, name)
	}

	var languages []string
	uniqueWords := make(map[string]struct{})
	for _, file := range files {
		languages = append(languages, strings.TrimSuffix(path.Base(file), path.Ext(file)))

		data, err := fs.ReadFile(l.fs, file)
		if err != nil {
			return nil, err
		}

		// Scanner handles \n and \r\n line endings alike
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &CensoredData{
		Words:     words,
		Languages: languages,
	}, nil
}

package rag

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"gopkg.in/yaml.v3"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
)

//go:embed snippets.json
var defaultSnippets []byte

// Chunk is one retrievable unit of text.
type Chunk struct {
	Doc   string
	Index int
	Text  string
}

type snippetEntry struct {
	Doc  string `yaml:"doc"`
	Text string `yaml:"text"`
}

// UnmarshalYAML accepts either a bare string or a {doc, text} mapping.
func (s *snippetEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Text = value.Value
		return nil
	}
	type plain snippetEntry
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = snippetEntry(p)
	return nil
}

// LoadCorpus gathers chunks from the snippets file and the corpus directory.
// The built-in snippet set is used when neither is configured.
func LoadCorpus(cfg appconfig.Retrieval) ([]Chunk, error) {
	snippetsPath := strings.TrimSpace(cfg.SnippetsPath)
	corpusPath := strings.TrimSpace(cfg.CorpusPath)

	var chunks []Chunk
	switch {
	case snippetsPath != "":
		raw, err := os.ReadFile(snippetsPath)
		if err != nil {
			return nil, fmt.Errorf("read snippets %s: %w", snippetsPath, err)
		}
		loaded, err := ParseSnippets(raw, filepath.Base(snippetsPath))
		if err != nil {
			return nil, fmt.Errorf("parse snippets %s: %w", snippetsPath, err)
		}
		chunks = append(chunks, loaded...)
	case corpusPath == "":
		loaded, err := ParseSnippets(defaultSnippets, "snippets")
		if err != nil {
			return nil, fmt.Errorf("parse built-in snippets: %w", err)
		}
		chunks = append(chunks, loaded...)
	}

	if corpusPath != "" {
		loaded, err := loadCorpusDir(cfg)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, loaded...)
	}

	if len(chunks) == 0 {
		return nil, errors.New("retrieval corpus is empty")
	}
	return chunks, nil
}

// ParseSnippets decodes a JSON or YAML array of snippets. Entries without
// a doc name are attributed to doc.
func ParseSnippets(raw []byte, doc string) ([]Chunk, error) {
	var entries []snippetEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	chunks := make([]Chunk, 0, len(entries))
	for i, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		name := strings.TrimSpace(e.Doc)
		if name == "" {
			name = doc
		}
		chunks = append(chunks, Chunk{Doc: name, Index: i, Text: text})
	}
	return chunks, nil
}

func loadCorpusDir(cfg appconfig.Retrieval) ([]Chunk, error) {
	files, err := discoverCorpusFiles(cfg.CorpusPath, cfg.AllowedExtensions, cfg.ExcludeGlobs)
	if err != nil {
		return nil, fmt.Errorf("scan corpus %s: %w", cfg.CorpusPath, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no corpus files found under %s", cfg.CorpusPath)
	}

	splitter := newSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	var chunks []Chunk
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", path, err)
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		parts, err := splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", path, err)
		}
		docName := filepath.Base(path)
		for idx, part := range parts {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			chunks = append(chunks, Chunk{Doc: docName, Index: idx, Text: part})
		}
	}
	return chunks, nil
}

func newSplitter(size, overlap int) textsplitter.RecursiveCharacter {
	if size <= 0 {
		size = appconfig.DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)
}

func discoverCorpusFiles(root string, allowed []string, exclude []string) ([]string, error) {
	var files []string
	allowedMap := make(map[string]struct{}, len(allowed))
	for _, ext := range allowed {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowedMap[ext] = struct{}{}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldExclude(path, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldExclude(path, exclude) {
			return nil
		}
		if len(allowedMap) > 0 {
			if _, ok := allowedMap[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func shouldExclude(path string, patterns []string) bool {
	normalized := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		pattern = filepath.ToSlash(pattern)
		if strings.Contains(pattern, "**") {
			trimmed := strings.Trim(strings.ReplaceAll(pattern, "**", ""), "/")
			if trimmed != "" && strings.Contains(normalized, trimmed) {
				return true
			}
		}
		if ok, _ := filepath.Match(pattern, normalized); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

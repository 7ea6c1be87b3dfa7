package chunker

import (
	"bufio"
	"strings"
)

// DefaultMinChunkSize is the merge target for short sections, in characters.
const DefaultMinChunkSize = 2000

// SourceMarkdown identifies chunks produced from Markdown input. It is the
// only source kind today; the field exists so persisted metadata stays
// self-describing if other document kinds are added.
const SourceMarkdown = "markdown"

// Chunk is a contiguous unit of document text that receives one embedding.
// A chunk covers one or more consecutive Markdown sections.
type Chunk struct {
	Text           string
	Title          string
	CombinedTitles string
	Level          int
	Metadata       Metadata
}

// Metadata describes where a chunk came from and how it was assembled.
type Metadata struct {
	Source                string `json:"source"`
	FilePath              string `json:"file_path"`
	SectionTitle          string `json:"section_title"`
	CombinedSectionTitles string `json:"combined_section_titles"`
	SectionLevel          int    `json:"section_level"`
	SectionsCount         int    `json:"sections_count"`
	CharCount             int    `json:"char_count"`
}

// section is a single heading-delimited region of the source document.
type section struct {
	text  string
	title string
	level int
}

// Split cuts Markdown text into section-based chunks, merging consecutive
// short sections until each chunk reaches minChunkSize characters. A section
// is opened by a line whose trimmed form starts with '#'; its level is the
// number of leading '#' characters. Text before the first heading is not
// part of any section, so input without headings yields no chunks.
//
// Merging stops early when appending the next section would push the chunk
// past 2*minChunkSize. A single oversized section still becomes one chunk;
// sections are never split.
func Split(markdownText, filePath string, minChunkSize int) []Chunk {
	if minChunkSize <= 0 {
		minChunkSize = DefaultMinChunkSize
	}

	sections := splitSections(markdownText)
	if len(sections) == 0 {
		return nil
	}

	return mergeSections(sections, filePath, minChunkSize)
}

// splitSections scans the document line by line and collects
// heading-delimited sections. Sections that are empty after trimming are
// dropped.
func splitSections(markdownText string) []section {
	var sections []section

	var current []string
	var title string
	level := 0

	flush := func() {
		if title == "" {
			return
		}
		content := strings.TrimSpace(strings.Join(current, "\n"))
		if content == "" {
			return
		}
		sections = append(sections, section{text: content, title: title, level: level})
	}

	scanner := bufio.NewScanner(strings.NewReader(markdownText))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, "#") {
			flush()
			title = stripped
			level = len(stripped) - len(strings.TrimLeft(stripped, "#"))
			current = []string{line}
			continue
		}
		current = append(current, line)
	}
	flush()

	return sections
}

// mergeSections folds raw sections into chunks. Each chunk accumulates
// sections until it reaches minChunkSize, or until appending the next
// section would exceed twice that. The trailing accumulator is flushed even
// when short.
func mergeSections(sections []section, filePath string, minChunkSize int) []Chunk {
	var chunks []Chunk

	var text string
	var titles []string
	var levels []int

	for _, sec := range sections {
		if text == "" {
			text = sec.text
			titles = []string{sec.title}
			levels = []int{sec.level}
			continue
		}

		merged := text + "\n\n" + sec.text
		if len(text) >= minChunkSize || len(merged) > minChunkSize*2 {
			chunks = append(chunks, newChunk(text, titles, levels, filePath))
			text = sec.text
			titles = []string{sec.title}
			levels = []int{sec.level}
			continue
		}

		text = merged
		titles = append(titles, sec.title)
		levels = append(levels, sec.level)
	}

	if text != "" {
		chunks = append(chunks, newChunk(text, titles, levels, filePath))
	}

	return chunks
}

// newChunk builds a fresh chunk record from the accumulated sections. The
// record is constructed from scratch for every chunk so no state is shared
// between loop iterations.
func newChunk(text string, titles []string, levels []int, filePath string) Chunk {
	mainTitle := titles[0]
	combined := mainTitle
	if len(titles) > 1 {
		combined = strings.Join(titles, " | ")
	}

	level := levels[0]
	for _, l := range levels[1:] {
		if l < level {
			level = l
		}
	}

	return Chunk{
		Text:           text,
		Title:          mainTitle,
		CombinedTitles: combined,
		Level:          level,
		Metadata: Metadata{
			Source:                SourceMarkdown,
			FilePath:              filePath,
			SectionTitle:          mainTitle,
			CombinedSectionTitles: combined,
			SectionLevel:          level,
			SectionsCount:         len(titles),
			CharCount:             len(text),
		},
	}
}

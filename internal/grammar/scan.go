package grammar

import "strings"

// Block is one top-level unit of a response.
type Block struct {
	Kind Kind
	Path string // normalized, new-file and update-file blocks
	Name string // trimmed, project-name blocks
	Body string

	Start     int // offset of the start marker
	BodyStart int
	End       int // offset one past the body

	// Complete is set once the header (or, for a project name, the end
	// marker) has been seen in full.
	Complete bool
	// Bounded is set when another start marker follows the block, so its
	// body cannot grow any more.
	Bounded bool
}

// SearchReplace is one edit inside an update-file block.
type SearchReplace struct {
	Search  string
	Replace string
	Start   int // offset of the SEARCH marker
	End     int // offset one past the REPLACE marker
}

// Blank reports whether the search text is whitespace only, which means
// "insert at the top of the file".
func (op SearchReplace) Blank() bool {
	return strings.TrimSpace(op.Search) == ""
}

// Scan walks text from left to right and returns every block whose start
// marker it finds, complete or not. The body of a block runs up to the next
// start marker of any kind, or to the end of the text.
func Scan(text string) []Block {
	var blocks []Block
	at := NextBlockStart(text, 0)
	for at >= 0 {
		b := BlockAt(text, at)
		blocks = append(blocks, b)
		if !b.Bounded {
			break
		}
		at = b.End
	}
	return blocks
}

// BlockAt parses the block whose start marker sits at offset at, as returned
// by NextBlockStart.
func BlockAt(text string, at int) Block {
	kind := kindAt(text, at)
	b := Block{Kind: kind, Start: at, End: len(text)}
	open := at + len(kind.startToken())
	if next := NextBlockStart(text, open); next >= 0 {
		b.End = next
		b.Bounded = true
	}

	switch kind {
	case KindProjectName:
		seg := text[open:b.End]
		if j := strings.Index(seg, ProjectNameEnd); j >= 0 {
			b.Name = strings.TrimSpace(seg[:j])
			b.BodyStart = open
			b.Body = seg[:j]
			b.Complete = true
		}
	case KindNewFile, KindUpdateFile:
		if path, hdrEnd, ok := parseHeader(text[:b.End], open, kind.endToken()); ok {
			b.Path = path
			b.BodyStart = hdrEnd
			b.Body = text[hdrEnd:b.End]
			b.Complete = true
		}
	}
	return b
}

// parseHeader reads "<path> <end marker>" starting at offset from. The end
// marker has to be on the same line; otherwise the header is either still
// streaming or malformed.
func parseHeader(text string, from int, end string) (string, int, bool) {
	line := text[from:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	j := strings.Index(line, end)
	if j < 0 {
		return "", 0, false
	}
	path := NormalizePath(line[:j])
	if path == "" {
		return "", 0, false
	}
	return path, from + j + len(end), true
}

// findKind returns the first complete block of the given kind at or after from.
func findKind(text string, from int, kind Kind) (Block, int, bool) {
	tok := kind.startToken()
	for from < len(text) {
		i := strings.Index(text[from:], tok)
		if i < 0 {
			break
		}
		b := BlockAt(text, from+i)
		if b.Complete {
			return b, b.End, true
		}
		from += i + len(tok)
	}
	return Block{}, len(text), false
}

// FindProjectName returns the trimmed content of the first complete
// project-name block at or after from.
func FindProjectName(text string, from int) (string, int, bool) {
	b, next, ok := findKind(text, from, KindProjectName)
	return b.Name, next, ok
}

// FindNewFile returns the first complete new-file block at or after from.
func FindNewFile(text string, from int) (Block, int, bool) {
	return findKind(text, from, KindNewFile)
}

// FindUpdateFile returns the first complete update-file block at or after from.
func FindUpdateFile(text string, from int) (Block, int, bool) {
	return findKind(text, from, KindUpdateFile)
}

// FindSearchReplace returns the first complete search/replace operation at or
// after from. All three markers must open their own line. The line break
// after the SEARCH marker and divider, and the one before the divider and
// REPLACE marker, belong to the markers, not to the texts.
func FindSearchReplace(text string, from int) (SearchReplace, int, bool) {
	if from < 0 {
		from = 0
	}
	if from > len(text) {
		return SearchReplace{}, len(text), false
	}
	at := indexLine(text, SearchStart, from)
	if at < 0 {
		return SearchReplace{}, len(text), false
	}
	searchFrom := afterLine(text, at)
	if searchFrom < 0 {
		return SearchReplace{}, len(text), false
	}
	div := indexLine(text, Divider, searchFrom)
	if div < 0 {
		return SearchReplace{}, len(text), false
	}
	replaceFrom := afterLine(text, div)
	if replaceFrom < 0 {
		return SearchReplace{}, len(text), false
	}
	rep := indexLine(text, ReplaceEnd, replaceFrom)
	if rep < 0 {
		return SearchReplace{}, len(text), false
	}

	op := SearchReplace{
		Search:  trimEOL(text[searchFrom:lineBegin(text, div)]),
		Replace: trimEOL(text[replaceFrom:lineBegin(text, rep)]),
		Start:   at,
		End:     rep + len(ReplaceEnd),
	}
	return op, op.End, true
}

// SearchReplaces returns every complete operation in text, in order.
func SearchReplaces(text string) []SearchReplace {
	var ops []SearchReplace
	for from := 0; ; {
		op, next, ok := FindSearchReplace(text, from)
		if !ok {
			return ops
		}
		ops = append(ops, op)
		from = next
	}
}

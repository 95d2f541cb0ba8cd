package patch

import (
	"strings"

	"github.com/jorge-barreto/sitepatch/internal/grammar"
)

// Session accumulates a streamed response and applies it to a FileSet as
// blocks complete. It keeps the consumed-offset cursor that Apply leaves to
// its caller, so no block is applied twice no matter how the stream is
// chunked.
//
// A Session is not safe for concurrent use.
type Session struct {
	files *FileSet
	buf   strings.Builder

	consumed int // start of the first block not yet fully applied
	openOps  int // operations already applied from the block at consumed

	sawNewFile bool
	closed     bool
	total      Result
}

// NewSession starts a session that edits files in place.
func NewSession(files *FileSet) *Session {
	if files == nil {
		files = &FileSet{}
	}
	return &Session{files: files}
}

// Feed appends chunk to the buffer and applies whatever became complete:
// every block now bounded by a following start marker, finished operations
// of a still-open update-file block, and the project name once its end
// marker arrives. It returns only what this call applied.
func (s *Session) Feed(chunk string) *Result {
	res := &Result{}
	if s.closed {
		return res
	}
	s.buf.WriteString(chunk)
	s.advance(res, false)
	s.total.Merge(res)
	return res
}

// Close applies the trailing block, which is bounded by the end of the
// response, and then the bare-operation fallback if the complete response
// contains no new-file block and no update-file start marker. Further
// Feeds are ignored.
func (s *Session) Close() *Result {
	res := &Result{}
	if s.closed {
		return res
	}
	s.closed = true
	s.advance(res, true)
	text := s.buf.String()
	if !s.sawNewFile && !strings.Contains(text, grammar.UpdateFileStart) {
		applyBare(grammar.SearchReplaces(text), s.files, res)
	}
	s.total.Merge(res)
	return res
}

func (s *Session) advance(res *Result, final bool) {
	text := s.buf.String()
	for {
		at := grammar.NextBlockStart(text, s.consumed)
		if at < 0 {
			return
		}
		if at != s.consumed {
			s.consumed = at
			s.openOps = 0
		}

		b := grammar.BlockAt(text, at)
		if !b.Bounded && !final {
			s.applyOpen(b, res)
			return
		}
		if b.Complete {
			if b.Kind == grammar.KindNewFile {
				s.sawNewFile = true
			}
			s.applyRest(b, res)
		}
		s.consumed = b.End
		s.openOps = 0
		if !b.Bounded {
			return
		}
	}
}

// applyOpen handles the block still being streamed. Only parts that can no
// longer change are applied.
func (s *Session) applyOpen(b grammar.Block, res *Result) {
	if !b.Complete {
		return
	}
	switch b.Kind {
	case grammar.KindProjectName:
		s.setName(b.Name, res)
	case grammar.KindUpdateFile:
		ops := grammar.SearchReplaces(b.Body)
		if len(ops) > s.openOps {
			applyOps(b.Path, ops[s.openOps:], s.files, res)
			s.openOps = len(ops)
		}
	}
}

// applyRest applies a block whose body is final, minus any operations
// already applied while it was open.
func (s *Session) applyRest(b grammar.Block, res *Result) {
	switch b.Kind {
	case grammar.KindProjectName:
		s.setName(b.Name, res)
	case grammar.KindNewFile:
		applyNewFile(b, s.files, res)
	case grammar.KindUpdateFile:
		ops := grammar.SearchReplaces(b.Body)
		if s.openOps < len(ops) {
			applyOps(b.Path, ops[s.openOps:], s.files, res)
		}
	}
}

func (s *Session) setName(name string, res *Result) {
	if s.total.ProjectName == "" && res.ProjectName == "" {
		res.ProjectName = name
	}
}

// ProjectName returns the first non-empty project name seen so far.
func (s *Session) ProjectName() string {
	return s.total.ProjectName
}

// Text returns the buffered response.
func (s *Session) Text() string {
	return s.buf.String()
}

// Files returns the FileSet being edited.
func (s *Session) Files() *FileSet {
	return s.files
}

// Changes returns every change record applied so far.
func (s *Session) Changes() []ChangeRecord {
	return s.total.Changes
}

// Total returns everything the session has applied so far.
func (s *Session) Total() *Result {
	return &s.total
}

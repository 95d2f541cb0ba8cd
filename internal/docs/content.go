package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with sitepatch",
		Content: topicQuickstart,
	},
	{
		Name:    "format",
		Title:   "Response Format",
		Summary: "The blocks a model response uses to name, create and edit files",
		Content: topicFormat,
	},
	{
		Name:    "matching",
		Title:   "Search Matching",
		Summary: "How search text is found and what happens when it is not",
		Content: topicMatching,
	},
	{
		Name:    "streaming",
		Title:   "Streaming Turns",
		Summary: "Applying a response while it is still arriving",
		Content: topicStreaming,
	},
	{
		Name:    "storage",
		Title:   "Storage and Checkpoints",
		Summary: "Where files, state and undo snapshots live",
		Content: topicStorage,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Config file schema, fields, and defaults",
		Content: topicConfig,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize a project:

    mkdir bakery && cd bakery
    sitepatch init --name bakery

   This creates .sitepatch/config.yaml and .sitepatch/.gitignore.

2. Apply a model response. Any of these work:

    sitepatch apply response.md
    pbpaste | sitepatch apply -
    sitepatch apply --clipboard

   With no argument and nothing piped in, the clipboard is read.

3. Or let sitepatch run the model for you:

    sitepatch generate "a landing page for a bakery"

   The prompt includes the current files and the block format. Edits are
   applied as the response streams in.

4. Look at the result:

    sitepatch status
    sitepatch files index.html
    sitepatch check

5. Undo the last turn if you do not like it:

    sitepatch undo
`

const topicFormat = `Response Format
===============

A response is free text with blocks in it. Text outside blocks is ignored.
Every marker sits on its own line.

Project name:

    <<<<<<< PROJECT_NAME_START Sunrise Bakery >>>>>>> PROJECT_NAME_END

  The first non-empty name in a response wins.

New file (creates the file, or replaces it entirely):

    <<<<<<< NEW_FILE_START index.html >>>>>>> NEW_FILE_END
    ` + "```" + `html
    <!DOCTYPE html>
    ...
    ` + "```" + `

  The content is the first fenced code block after the header. Without a
  fence, everything up to the next block is used.

Update file:

    <<<<<<< UPDATE_FILE_START index.html >>>>>>> UPDATE_FILE_END
    <<<<<<< SEARCH
    <h1>Old</h1>
    =======
    <h1>New</h1>
    >>>>>>> REPLACE

  An update block may hold any number of search/replace operations. They
  apply in order, each to the result of the previous one. An empty search
  inserts the replacement at the top of the file.

Paths are relative to the project. Leading slashes and ".." segments are
dropped. Blocks apply left to right, so an update that follows a new file
block for the same path edits the new content.

If a response holds no new-file block and no update-file marker at all,
bare search/replace operations are applied to the first file (the entry
page).
`

const topicMatching = `Search Matching
===============

Search text is matched loosely so that re-indented or re-wrapped HTML still
matches:

  - any run of whitespace in the search matches any run of whitespace,
    including none
  - whitespace around < and > is optional
  - everything else must match exactly, case included

Only the first occurrence is replaced. The indentation of the first search
line is removed from the replacement so the replacement takes the indent of
the text it replaces.

Each applied edit reports the 1-based line range it produced, e.g.
index.html:12-15. Edits that cannot be applied are skipped and reported:

  unknown-file     the update names a file that does not exist
  no-match         the search text was not found
  no-primary-file  a bare operation arrived but the project has no files

Skipped edits never stop a turn.
`

const topicStreaming = `Streaming Turns
===============

A turn is one response applied to the project. Text arrives in chunks from
the source (file, stdin, clipboard, a growing file, or the generator) and is
applied as soon as it can no longer change:

  - a block is applied once the next block starts
  - inside an open update block, each finished SEARCH/REPLACE is applied
    immediately
  - a new file waits until its block is bounded or the response ends
  - the project name is taken as soon as its end marker arrives

No edit is ever applied twice, however the text is split.

Interrupting a turn (Ctrl-C) keeps everything applied so far; the turn is
recorded as interrupted and can be undone.

Sources:

  apply FILE            a saved response
  apply -               stdin (add --stream-json for claude stream-json)
  apply --clipboard     the system clipboard
  watch FILE            follow a file something else is writing; each time
                        the file is truncated a new turn starts
  generate REQUEST...   run the configured generator
`

const topicStorage = `Storage and Checkpoints
=======================

Files are kept by the configured store:

  files   plain files under store.path (default "site"), with the file
          order recorded in .sitepatch-manifest.json. Files not listed in
          the manifest are picked up with the entry page first.
  sqlite  one SQLite database (default .sitepatch/site.db)

.sitepatch/ holds the rest:

  config.yaml           configuration
  state.json            project name, turn counter, last status
  turns.json            one entry per turn
  responses/turn-N.md   the raw response of each turn
  logs/                 generator output and the optional log file
  checkpoints/          pre-turn snapshots

Before every turn the current files are snapshotted. Bodies are stored
once, zstd-compressed and keyed by their SHA-256, so unchanged files cost
nothing. checkpoints.keep limits how many snapshots are kept.

  sitepatch history          list turns
  sitepatch undo             restore the files from before the last turn
  sitepatch undo --id 1a2b   restore a specific checkpoint
`

const topicConfig = `Configuration Reference
=======================

.sitepatch/config.yaml:

    name: bakery                 # required
    entry: index.html            # the entry page, kept first

    store:
      driver: files              # files | sqlite
      path: site                 # relative to the project root

    checkpoints:
      enabled: true
      compression-level: 3       # zstd level, 1-22
      keep: 20                   # 0 keeps everything

    generator:
      command: claude
      model: sonnet              # opus | sonnet | haiku | claude-* id
      timeout: 10                # minutes
      args: []                   # replaces the default arguments

    watch:
      debounce-ms: 150

    log:
      level: info                # trace | debug | info | warn | error
      format: console            # console | json
      file: .sitepatch/logs/sitepatch.log
      max-size-mb: 10
      max-backups: 3

Generator arguments may use $PROMPT, $MODEL, $PROJECT_ROOT and
$PROJECT_NAME; other $NAMES fall back to the environment. The default is

    -p $PROMPT --output-format stream-json --verbose
    --include-partial-messages [--model $MODEL]

When the arguments ask for stream-json output, text deltas are applied as
they arrive. Otherwise stdout is treated as the response text.
`

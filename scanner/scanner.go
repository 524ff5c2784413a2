// Package scanner discovers recorded assistant sessions on disk so
// callers can pick one to clone.
package scanner

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/benhall-io/squish/document"
)

// Session describes one discovered conversation file.
type Session struct {
	ID      string
	Source  document.Source
	Path    string
	Project string
	Summary string
	ModTime time.Time
}

// Scanner locates session files under the Claude Code and Codex data
// directories. Zero-value roots resolve against the user's home
// directory.
type Scanner struct {
	// ClaudeRoot overrides ~/.claude/projects.
	ClaudeRoot string
	// CodexRoot overrides ~/.codex/sessions.
	CodexRoot string
}

const (
	headScanLimit = 50
	summaryLength = 120
	scanBufSize   = 256 * 1024
)

// ScanAll discovers sessions from every known source, newest first. A
// missing data directory is not an error; it just contributes nothing.
func (s *Scanner) ScanAll() ([]Session, error) {
	sessions, err := s.ScanClaude()
	if err != nil {
		return nil, err
	}
	codex, err := s.ScanCodex()
	if err != nil {
		return nil, err
	}
	sessions = append(sessions, codex...)

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModTime.After(sessions[j].ModTime)
	})
	return sessions, nil
}

// ScanClaude discovers Claude Code sessions: one .jsonl file per
// session, grouped in per-project directories. Subdirectories inside a
// project hold subagent transcripts and are skipped.
func (s *Scanner) ScanClaude() ([]Session, error) {
	root := s.ClaudeRoot
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(home, ".claude", "projects")
	}

	projects, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []Session
	for _, proj := range projects {
		if !proj.IsDir() {
			continue
		}
		projPath := filepath.Join(root, proj.Name())
		files, err := os.ReadDir(projPath)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			if sess := probeClaude(filepath.Join(projPath, f.Name())); sess != nil {
				sessions = append(sessions, *sess)
			}
		}
	}
	return sessions, nil
}

// ScanCodex discovers Codex rollout files, which are nested in dated
// subdirectories.
func (s *Scanner) ScanCodex() ([]Session, error) {
	root := s.CodexRoot
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(home, ".codex", "sessions")
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var sessions []Session
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		if sess := probeCodex(path); sess != nil {
			sessions = append(sessions, *sess)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// probeClaude reads the head of a Claude Code file for its session id
// and first user message. Files with no session id (file history
// snapshots and the like) are ignored.
func probeClaude(path string) *Session {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, scanBufSize), scanBufSize)

	var id, cwd, summary string
	for i := 0; i < headScanLimit && sc.Scan(); i++ {
		line := sc.Bytes()
		if !gjson.ValidBytes(line) {
			continue
		}
		if id == "" {
			id = gjson.GetBytes(line, "sessionId").String()
			cwd = gjson.GetBytes(line, "cwd").String()
		}
		if summary == "" && gjson.GetBytes(line, "type").String() == "user" {
			content := gjson.GetBytes(line, "message.content")
			if content.Type == gjson.String {
				summary = content.String()
			} else {
				summary = content.Get(`#(type=="text").text`).String()
			}
		}
		if id != "" && summary != "" {
			break
		}
	}
	if id == "" {
		return nil
	}

	return &Session{
		ID:      id,
		Source:  document.SourceClaude,
		Path:    path,
		Project: projectName(cwd),
		Summary: summarize(summary),
		ModTime: info.ModTime(),
	}
}

// probeCodex reads the head of a Codex rollout for its session_meta
// and first user message.
func probeCodex(path string) *Session {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, scanBufSize), scanBufSize)

	var id, cwd, summary string
	for i := 0; i < headScanLimit && sc.Scan(); i++ {
		line := sc.Bytes()
		switch gjson.GetBytes(line, "type").String() {
		case "session_meta":
			id = gjson.GetBytes(line, "payload.id").String()
			cwd = gjson.GetBytes(line, "payload.cwd").String()
		case "response_item":
			if summary != "" || gjson.GetBytes(line, "payload.role").String() != "user" {
				continue
			}
			text := gjson.GetBytes(line, `payload.content.#(type=="input_text").text`).String()
			// Environment preambles are not the user's ask.
			if text != "" && !strings.HasPrefix(text, "<") && !strings.HasPrefix(text, "#") {
				summary = text
			}
		}
		if id != "" && summary != "" {
			break
		}
	}
	if id == "" {
		return nil
	}

	return &Session{
		ID:      id,
		Source:  document.SourceCodex,
		Path:    path,
		Project: projectName(cwd),
		Summary: summarize(summary),
		ModTime: info.ModTime(),
	}
}

func projectName(cwd string) string {
	name := filepath.Base(cwd)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "unknown"
	}
	return name
}

// summarize flattens a message to a single display line.
func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= summaryLength {
		return s
	}
	return string(runes[:summaryLength-2]) + ".."
}

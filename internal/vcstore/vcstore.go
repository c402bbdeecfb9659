// Package vcstore implements the content-addressed version-control file
// store (spec.md §1 "OUT OF SCOPE" list, expanded at SPEC_FULL.md §2.5).
// State lives behind a single coordinator goroutine (the actor pattern
// reused more rigorously by internal/jobcenter), grounded on
// original_source/src/version_control/file_actor/{actor,dir,file,manager}.rs:
// each PUT hashes its content and only allocates a new revision when the
// hash differs from the file's current revision (a no-op PUT costs no new
// revision number).
package vcstore

import (
	"crypto/sha256"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

type file struct {
	revisions [][]byte // index 0 is revision 1
	hashes    [][32]byte
}

func (f *file) put(data []byte) (rev int, created bool) {
	hash := sha256.Sum256(data)
	if len(f.hashes) > 0 && f.hashes[len(f.hashes)-1] == hash {
		return len(f.revisions), false
	}
	f.revisions = append(f.revisions, data)
	f.hashes = append(f.hashes, hash)
	return len(f.revisions), true
}

func (f *file) get(rev int) ([]byte, bool) {
	if rev <= 0 {
		rev = len(f.revisions)
	}
	if rev < 1 || rev > len(f.revisions) {
		return nil, false
	}
	return f.revisions[rev-1], true
}

// command types sent to the coordinator goroutine.
type (
	putCmd struct {
		path  string
		data  []byte
		reply chan putResult
	}
	getCmd struct {
		path string
		rev  int
		reply chan getResult
	}
	listCmd struct {
		dir   string
		reply chan []Entry
	}
)

// putResult is the coordinator's answer to a putCmd.
type putResult struct {
	rev int
	err error
}

// getResult is the coordinator's answer to a getCmd.
type getResult struct {
	data []byte
	err  error
}

// Entry is one line of a LIST response.
type Entry struct {
	Name    string // trailing "/" for a subdirectory
	Rev     int    // 0 for directories
}

// Store owns the file tree behind a single coordinator goroutine: no
// locking is needed because only that goroutine ever touches the map.
type Store struct {
	puts  chan putCmd
	gets  chan getCmd
	lists chan listCmd
}

// New starts the coordinator goroutine and returns a handle to it.
func New() *Store {
	s := &Store{
		puts:  make(chan putCmd),
		gets:  make(chan getCmd),
		lists: make(chan listCmd),
	}
	go s.run()
	return s
}

func (s *Store) run() {
	files := make(map[string]*file) // full path -> file

	for {
		select {
		case cmd := <-s.puts:
			f, ok := files[cmd.path]
			if !ok {
				f = &file{}
				files[cmd.path] = f
			}
			rev, _ := f.put(cmd.data)
			cmd.reply <- putResult{rev: rev}

		case cmd := <-s.gets:
			f, ok := files[cmd.path]
			if !ok {
				cmd.reply <- getResult{err: fmt.Errorf("no such file")}
				continue
			}
			data, ok := f.get(cmd.rev)
			if !ok {
				cmd.reply <- getResult{err: fmt.Errorf("no such revision")}
				continue
			}
			cmd.reply <- getResult{data: data}

		case cmd := <-s.lists:
			cmd.reply <- listEntries(files, cmd.dir)
		}
	}
}

func listEntries(files map[string]*file, dir string) []Entry {
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "/"
	}

	seenDirs := map[string]bool{}
	var entries []Entry

	for p, f := range files {
		parent := path.Dir(p)
		if parent != dir {
			// Is p under a subdirectory of dir?
			if strings.HasPrefix(p, dir+"/") || dir == "/" {
				rest := strings.TrimPrefix(p, dir)
				rest = strings.TrimPrefix(rest, "/")
				if idx := strings.IndexByte(rest, '/'); idx >= 0 {
					sub := rest[:idx]
					if sub != "" && !seenDirs[sub] {
						seenDirs[sub] = true
						entries = append(entries, Entry{Name: sub + "/"})
					}
				}
			}
			continue
		}
		entries = append(entries, Entry{Name: path.Base(p), Rev: len(f.revisions)})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Put writes data as the next revision of path, returning the new (or
// unchanged, if data matches the current revision) revision number.
func (s *Store) Put(filePath string, data []byte) (int, error) {
	if !validPath(filePath) {
		return 0, fmt.Errorf("illegal file name")
	}
	reply := make(chan putResult, 1)
	s.puts <- putCmd{path: filePath, data: data, reply: reply}
	r := <-reply
	return r.rev, r.err
}

// Get returns path's content at rev, or its latest revision if rev is 0.
func (s *Store) Get(filePath string, rev int) ([]byte, error) {
	reply := make(chan getResult, 1)
	s.gets <- getCmd{path: filePath, rev: rev, reply: reply}
	r := <-reply
	return r.data, r.err
}

// List returns the directory/file entries directly under dir.
func (s *Store) List(dir string) []Entry {
	reply := make(chan []Entry, 1)
	s.lists <- listCmd{dir: dir, reply: reply}
	return <-reply
}

// validPath rejects filenames that aren't absolute, printable-ASCII, or
// that contain a "." or ".." component, per original_source's illegal-filename
// handling (spec.md is silent on the exact rule).
func validPath(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	for _, r := range p {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." || part == "." {
			return false
		}
	}
	return true
}

// ParseRevision parses a "r123" or "123" revision token, as accepted by GET.
func ParseRevision(tok string) (int, error) {
	tok = strings.TrimPrefix(tok, "r")
	return strconv.Atoi(tok)
}

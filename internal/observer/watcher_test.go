package observer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, root string, setup func(*ProjectWatcher)) <-chan []string {
	t.Helper()

	changes := make(chan []string, 10)
	pw, err := NewProjectWatcher(root, func(files []string) { changes <- files })
	if err != nil {
		t.Fatal(err)
	}
	pw.SetDebounce(50 * time.Millisecond)
	if setup != nil {
		setup(pw)
	}
	if err := pw.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pw.Stop)
	return changes
}

func waitForChange(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case files := <-changes:
		return files
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
		return nil
	}
}

func expectQuiet(t *testing.T, changes <-chan []string) {
	t.Helper()
	select {
	case files := <-changes:
		t.Errorf("unexpected change %v", files)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestProjectWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, nil)

	path := filepath.Join(root, "main.go")
	if err := os.WriteFile(path, []byte("package main"), 0644); err != nil {
		t.Fatal(err)
	}

	files := waitForChange(t, changes)
	found := false
	for _, f := range files {
		if f == path {
			found = true
		}
	}
	if !found {
		t.Errorf("changes %v do not include %s", files, path)
	}
}

func TestProjectWatcher_Debounces(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, nil)

	for _, name := range []string{"a.go", "b.go", "c.go"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if files := waitForChange(t, changes); len(files) != 3 {
		t.Errorf("files = %v, want one batch of 3", files)
	}
	expectQuiet(t, changes)
}

func TestProjectWatcher_IgnoresBuildOutput(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "target"), 0755); err != nil {
		t.Fatal(err)
	}
	changes := startWatcher(t, root, func(pw *ProjectWatcher) {
		pw.IgnoreDirs("target")
		pw.IgnorePaths("main")
	})

	if err := os.WriteFile(filepath.Join(root, "target", "out.o"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "main"), []byte("x"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	expectQuiet(t, changes)
}

func TestProjectWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root, nil)

	dir := filepath.Join(root, "src")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changes)

	path := filepath.Join(dir, "lib.go")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	files := waitForChange(t, changes)
	if len(files) != 1 || files[0] != path {
		t.Errorf("files = %v, want [%s]", files, path)
	}
}

func TestProjectWatcher_PauseDropsBuildWrites(t *testing.T) {
	root := t.TempDir()
	var pw *ProjectWatcher
	changes := startWatcher(t, root, func(w *ProjectWatcher) { pw = w })

	pw.Pause()
	bin := filepath.Join(root, "bin")
	if err := os.Mkdir(bin, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bin, "solution"), []byte("x"), 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	pw.Resume()

	expectQuiet(t, changes)

	// bin was created while paused but is still watched afterwards
	path := filepath.Join(bin, "solution")
	if err := os.WriteFile(path, []byte("y"), 0755); err != nil {
		t.Fatal(err)
	}
	files := waitForChange(t, changes)
	if len(files) != 1 || files[0] != path {
		t.Errorf("files = %v, want [%s]", files, path)
	}
}

func TestProjectWatcher_PauseDiscardsPending(t *testing.T) {
	root := t.TempDir()
	var pw *ProjectWatcher
	changes := startWatcher(t, root, func(w *ProjectWatcher) {
		w.SetDebounce(500 * time.Millisecond)
		pw = w
	})

	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	pw.Pause()
	pw.Resume()

	select {
	case files := <-changes:
		t.Errorf("unexpected change %v", files)
	case <-time.After(800 * time.Millisecond):
	}
}

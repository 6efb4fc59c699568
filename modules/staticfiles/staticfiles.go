// Package staticfiles is the StaticFiles example module (spec
// SPEC_FULL.md §4.10, C10): it indexes a directory at startup and serves
// files under it on request, exercising an init-phase action feeding a
// request-phase action through a registry-held index rather than a
// cross-context action dependency.
package staticfiles

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/httpx"
	"github.com/basecore/basecore/module"
	"github.com/basecore/basecore/runtime"
)

type entry struct {
	diskPath string
	size     int64
}

// StaticFiles serves the contents of Root under the "/assets/*" path.
type StaticFiles struct {
	*module.Base
	Root string

	mu    sync.RWMutex
	files map[string]entry
}

// New builds and declares the StaticFiles module's actions. Call
// RegisterSelf (inherited from module.Base) afterward to add it to the
// Registry's "Module" tag group.
func New(root string, b *bus.Bus, actions *action.Registry, log module.Logger) *StaticFiles {
	sf := &StaticFiles{Base: module.NewBase("StaticFiles", b, actions, log), Root: root}
	_ = sf.Init("index", 60, nil, sf.index)
	_ = sf.Request("/get/assets/*", "serve", 100, nil, sf.serve)
	return sf
}

// index walks Root and builds the in-memory path -> file-info map that
// serve consults. It depends on nothing (spec SPEC_FULL.md §4.10).
func (sf *StaticFiles) index(ctx *runtime.Context) error {
	files := make(map[string]entry)

	err := filepath.Walk(sf.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sf.Root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = entry{diskPath: path, size: info.Size()}
		return nil
	})
	if err != nil {
		return err
	}

	sf.mu.Lock()
	sf.files = files
	sf.mu.Unlock()
	return nil
}

// serve looks up the wildcard-captured path against the index built by
// index and streams the matching file, or a 404 body if absent.
func (sf *StaticFiles) serve(ctx *runtime.Context) error {
	resp := ctx.MustGet("response").(*httpx.Response)
	wanted := ctx.Param("*")

	sf.mu.RLock()
	fi, ok := sf.files[wanted]
	sf.mu.RUnlock()
	if !ok {
		return resp.Text(http.StatusNotFound, "not found")
	}

	data, err := os.ReadFile(fi.diskPath)
	if err != nil {
		return err
	}
	return resp.Send(http.StatusOK, data)
}

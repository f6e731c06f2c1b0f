// Command wxmlwatch watches a template file for changes, re-parses it on
// every write, and streams the resulting diagnostics to any connected
// browser over a websocket. It exists purely as an outer dev-loop
// convenience; the wxml package itself performs no I/O and knows nothing
// about files, sockets, or watching.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"github.com/wxmlc/wxml/wxml"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type diagnosticReport struct {
	Path        string           `json:"path"`
	Diagnostics []diagnosticJSON `json:"diagnostics"`
}

type diagnosticJSON struct {
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// broadcaster fans a diagnosticReport out to every connected websocket
// client, dropping any client whose write fails.
type broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{clients: make(map[*websocket.Conn]bool)}
}

func (b *broadcaster) add(c *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c] = true
}

func (b *broadcaster) remove(c *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, c)
	c.Close()
}

func (b *broadcaster) send(report diagnosticReport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		w, err := c.NextWriter(websocket.TextMessage)
		if err == nil {
			err = json.NewEncoder(w).Encode(report)
			if cerr := w.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			delete(b.clients, c)
			c.Close()
		}
	}
}

func reportFor(path string) diagnosticReport {
	src, err := os.ReadFile(path)
	if err != nil {
		return diagnosticReport{Path: path, Diagnostics: []diagnosticJSON{{Kind: "ReadError", Line: 0, Column: 0}}}
	}
	_, diags := wxml.Parse(path, src)
	out := make([]diagnosticJSON, len(diags))
	for i, d := range diags {
		out[i] = diagnosticJSON{Kind: d.Kind.String(), Line: d.Range.Start.Line, Column: d.Range.Start.Column}
	}
	return diagnosticReport{Path: path, Diagnostics: out}
}

func main() {
	addr := flag.String("addr", ":8090", "address to serve the diagnostics websocket on")
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if flag.NArg() != 1 {
		logger.Error("usage: wxmlwatch [-addr :8090] <file.wxml>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("creating watcher", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		logger.Error("watching file", "path", path, "error", err)
		os.Exit(1)
	}

	b := newBroadcaster()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				logger.Info("template changed", "path", path)
				b.send(reportFor(path))
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "error", werr)
			}
		}
	}()

	http.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade", "error", err)
			return
		}
		b.add(conn)
		defer b.remove(conn)

		// push the current diagnostics immediately on connect
		if err := conn.WriteJSON(reportFor(path)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	logger.Info("serving diagnostics websocket", "address", *addr, "path", path)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Error("http server", "error", err)
		os.Exit(1)
	}
}

// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package echo is a WebSocket echo listener, a connectivity probe that
// runs beside the display loop. It never touches the panel.
package echo

import (
	"context"
	"log"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// ListenAndServe listens on addr and serves until ctx is done.
func ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("echo: listening on %s", l.Addr())
	return Serve(ctx, l)
}

// Serve accepts connections on l, upgrades them to WebSocket, and
// echoes every message back. It returns when ctx is done, closing the
// listener; per-connection goroutines drain on their own.
func Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go handle(conn)
	}
}

func handle(conn net.Conn) {
	defer conn.Close()
	if _, err := ws.Upgrade(conn); err != nil {
		log.Printf("echo: upgrade from %s: %v", conn.RemoteAddr(), err)
		return
	}
	for {
		msg, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			// Includes the peer's close frame; nothing to do.
			return
		}
		if op == ws.OpText {
			log.Printf("echo: %s: %q", conn.RemoteAddr(), msg)
		}
		if err := wsutil.WriteServerMessage(conn, op, msg); err != nil {
			log.Printf("echo: write to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

package nntpclient

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/usenetkit/nzbdecode/internal/config"
	"github.com/usenetkit/nzbdecode/internal/infra/logger"
)

// fakeServer starts a minimal NNTP server on a loopback port, greets
// with 200, accepts AUTHINFO, and replies to exactly one BODY command
// with the given raw multi-line response before closing.
func fakeServer(t *testing.T, bodyResponse string) (addr string, done chan struct{}) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done = make(chan struct{})

	go func() {
		defer close(done)
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		conn.Write([]byte("200 news.example ready\r\n"))

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			switch {
			case strings.HasPrefix(line, "AUTHINFO USER"):
				conn.Write([]byte("381 password required\r\n"))
			case strings.HasPrefix(line, "AUTHINFO PASS"):
				conn.Write([]byte("281 authentication accepted\r\n"))
			case strings.HasPrefix(line, "BODY"):
				conn.Write([]byte(bodyResponse))
				return
			case strings.HasPrefix(line, "QUIT"):
				return
			}
		}
	}()

	return ln.Addr().String(), done
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(t.TempDir()+"/client_test.log", logger.LevelDebug, false)
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestFetchDecodesYencBody(t *testing.T) {
	body := "222 body follows\r\n" +
		"=ybegin line=128 size=12 name=hello.txt\r\n" +
		"r\x8f\x96\x96\x99J\xa1\x99\x9c\x96\x8eK\r\n" +
		"=yend size=12 crc32=1b851995\r\n" +
		".\r\n"

	host, port, err := net.SplitHostPort(mustListen(t, body))
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	_ = host

	cfg := config.ServerConfig{ID: "test", Host: host, Port: atoiT(t, port), Username: "user", Password: "pass", MaxConnection: 1, Priority: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, cfg, 4096, testLogger(t))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	resp, err := c.Fetch(ctx, "msg1@example")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.StatusCode != 222 {
		t.Fatalf("StatusCode = %d, want 222", resp.StatusCode)
	}
	if string(resp.Data) != "Hello world!" {
		t.Fatalf("Data = %q, want %q", resp.Data, "Hello world!")
	}
	if !resp.HasCRCExpected || resp.CRCComputed != resp.CRCExpected {
		t.Fatalf("CRC mismatch: computed=%08x expected=%08x (has=%v)", resp.CRCComputed, resp.CRCExpected, resp.HasCRCExpected)
	}
}

func TestFetchReportsMissingArticle(t *testing.T) {
	body := "430 No such article\r\n"

	host, port, err := net.SplitHostPort(mustListen(t, body))
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}

	cfg := config.ServerConfig{ID: "test", Host: host, Port: atoiT(t, port), MaxConnection: 1, Priority: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, cfg, 4096, testLogger(t))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	resp, err := c.Fetch(ctx, "missing@example")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.StatusCode != 430 {
		t.Fatalf("StatusCode = %d, want 430", resp.StatusCode)
	}
	if resp.HasData {
		t.Fatalf("expected no data on a missing-article response")
	}
}

func mustListen(t *testing.T, bodyResponse string) string {
	t.Helper()
	addr, _ := fakeServer(t, bodyResponse)
	return addr
}

func atoiT(t *testing.T, s string) int {
	t.Helper()
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("not a port: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n
}

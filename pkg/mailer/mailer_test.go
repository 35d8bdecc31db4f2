package mailer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssdigest/pkg/domain"
)

var testDigest = domain.Digest{
	Day:     time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC),
	Subject: "RSS Digest - November 12, 2025",
	Text:    "RSS Digest for November 12, 2025\n\nNo updates yesterday",
	HTML:    "<html><body><h1>RSS Digest for November 12, 2025</h1></body></html>",
}

func TestNewSMTPSender_Defaults(t *testing.T) {
	s := NewSMTPSender(Config{Host: "smtp.example.com", Port: 587, Username: "user@example.com", To: "me@example.com"})
	assert.Equal(t, "user@example.com", s.cfg.From)
	assert.Equal(t, TLSMandatory, s.cfg.TLS)
	assert.Equal(t, 30*time.Second, s.cfg.Timeout)

	s = NewSMTPSender(Config{Username: "user@example.com", From: "digest@example.com", TLS: TLSNone, Timeout: time.Second})
	assert.Equal(t, "digest@example.com", s.cfg.From)
	assert.Equal(t, TLSNone, s.cfg.TLS)
	assert.Equal(t, time.Second, s.cfg.Timeout)
}

func TestSMTPSender_message(t *testing.T) {
	s := NewSMTPSender(Config{Username: "user@example.com", To: "me@example.com"})
	msg, err := s.message(testDigest)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "Subject: RSS Digest - November 12, 2025")
	assert.Contains(t, raw, "<user@example.com>")
	assert.Contains(t, raw, "<me@example.com>")
	assert.Contains(t, raw, "multipart/alternative")

	plainIdx := strings.Index(raw, "text/plain")
	htmlIdx := strings.Index(raw, "text/html")
	require.True(t, plainIdx > 0 && htmlIdx > 0, raw)
	assert.Less(t, plainIdx, htmlIdx, "plain text part goes first")
}

func TestSMTPSender_message_BadAddress(t *testing.T) {
	s := NewSMTPSender(Config{Username: "user@example.com", To: "not an address"})
	_, err := s.message(testDigest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set recipient address")
}

func TestSMTPSender_Send_ConnectionRefused(t *testing.T) {
	port := freePort(t)
	s := NewSMTPSender(Config{Host: "127.0.0.1", Port: port, Username: "user@example.com", Password: "secret",
		To: "me@example.com", TLS: TLSNone, Timeout: time.Second})

	err := s.Send(context.Background(), testDigest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnection), err.Error())
	assert.False(t, errors.Is(err, ErrAuth))
}

func TestSMTPSender_Send_AuthRejected(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go fakeSMTP(ln)

	s := NewSMTPSender(Config{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port, Username: "user@example.com",
		Password: "wrong", To: "me@example.com", TLS: TLSNone, Timeout: 2 * time.Second})

	err = s.Send(context.Background(), testDigest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth), err.Error())
}

func TestClassify(t *testing.T) {
	tbl := []struct {
		name string
		err  error
		want error
	}{
		{"auth code", &textproto.Error{Code: 535, Msg: "5.7.8 bad credentials"}, ErrAuth},
		{"wrapped auth code", fmt.Errorf("SMTP AUTH failed: %w", &textproto.Error{Code: 534, Msg: "need app password"}), ErrAuth},
		{"auth reply in text", errors.New("SMTP AUTH failed: 535 5.7.8 Authentication credentials invalid"), ErrAuth},
		{"auth reply multiline", errors.New("535-5.7.8 Username and Password not accepted"), ErrAuth},
		{"auth word without reply code", errors.New("server does not support SMTP authentication"), ErrConnection},
		{"auth word on tls failure", errors.New("tls: failed to verify certificate, authentication of server failed"), ErrConnection},
		{"port looks like auth code", errors.New("dial tcp 10.0.0.1:535: connect: connection refused"), ErrConnection},
		{"dial", errors.New("dial tcp 127.0.0.1:25: connect: connection refused"), ErrConnection},
		{"other code", &textproto.Error{Code: 554, Msg: "transaction failed"}, ErrConnection},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			assert.Contains(t, err.Error(), tt.err.Error())
		})
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// fakeSMTP accepts one connection and rejects any AUTH attempt
func fakeSMTP(ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	w := bufio.NewWriter(conn)
	reply := func(s string) {
		_, _ = w.WriteString(s + "\r\n")
		_ = w.Flush()
	}

	reply("220 localhost ESMTP fake")
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250-localhost")
			reply("250-AUTH PLAIN LOGIN")
			reply("250 8BITMIME")
		case strings.HasPrefix(cmd, "AUTH"):
			reply("535 5.7.8 Authentication credentials invalid")
		case strings.HasPrefix(cmd, "QUIT"):
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

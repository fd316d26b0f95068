package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	req := require.New(t)

	req.Equal("[alice] hello there", render("from alice: hello there", false))
	req.Equal("[alice] a: b", render("from alice: a: b", false))
	req.Equal("garbage", render("garbage", false))
	req.Contains(render("from bob: hi", true), "bob")
}

func TestForwardAndPrintLines(t *testing.T) {
	req := require.New(t)

	var sent bytes.Buffer
	req.NoError(forwardLines(strings.NewReader("bob:hi\nalice,bob:yo"), &sent))
	req.Equal("bob:hi\nalice,bob:yo\n", sent.String())

	var printed bytes.Buffer
	req.NoError(printLines(strings.NewReader("from bob: hi\r\nfrom carol: yo"), &printed, false))
	req.Equal("[bob] hi\n[carol] yo\n", printed.String())
}

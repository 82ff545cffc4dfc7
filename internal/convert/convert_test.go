// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLText(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head><title>Ignored</title><style>body{color:red}</style></head>
<body>
  <header>Site menu</header>
  <nav><a href="/">Home</a></nav>
  <h1>Exchange   deadlines</h1>
  <p>Apply by<b>15 March</b>.</p>
  <script>var x = "hidden";</script>
  <!-- a comment -->
  <table><tr><td>CS101</td><td>6&nbsp;ECTS</td></tr></table>
  <footer>© University</footer>
</body></html>`

	got, err := HTMLText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Exchange deadlines Apply by 15 March . CS101 6 ECTS", got)
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeSpace("  a\n\tb   c  "))
	assert.Equal(t, "", NormalizeSpace(" \n "))
}

type fakeRuntime struct {
	imageErr error
	run      func(stdin io.Reader, stdout io.Writer) error
}

func (f *fakeRuntime) Name() string                             { return "fake" }
func (f *fakeRuntime) Available(context.Context) bool           { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }
func (f *fakeRuntime) Run(_ context.Context, _ string, stdin io.Reader, stdout io.Writer) error {
	return f.run(stdin, stdout)
}

func TestPDFConverter(t *testing.T) {
	rt := &fakeRuntime{run: func(stdin io.Reader, stdout io.Writer) error {
		data, _ := io.ReadAll(stdin)
		_, err := io.WriteString(stdout, "# Catalog\n\n"+string(data)+"\n")
		return err
	}}
	c, err := NewPDFConverter(context.Background(), rt)
	require.NoError(t, err)

	text, err := c.Convert(context.Background(), strings.NewReader("CS101  Intro"))
	require.NoError(t, err)
	assert.Equal(t, "# Catalog CS101 Intro", text)
}

func TestPDFConverterErrors(t *testing.T) {
	_, err := NewPDFConverter(context.Background(), &fakeRuntime{imageErr: errors.New("missing")})
	assert.ErrorContains(t, err, "markitdown image not available")

	c, err := NewPDFConverter(context.Background(), &fakeRuntime{run: func(io.Reader, io.Writer) error { return nil }})
	require.NoError(t, err)
	_, err = c.Convert(context.Background(), strings.NewReader("x"))
	assert.ErrorContains(t, err, "empty output")
}

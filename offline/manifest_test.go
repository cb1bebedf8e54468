package offline

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
)

const indexHTML = `<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="./styles.css">
  <link rel="manifest" href="manifest.webmanifest">
  <link rel="icon" href="/spellstr/icons/icon-192.svg#x">
  <link rel="preconnect" href="https://fonts.example.com">
  <script src="./app.js"></script>
  <script src="./app.js"></script>
</head>
<body><img src="data:image/png;base64,AAAA"><img src="icons/icon-512.svg"></body>
</html>`

func TestDiscoverAssets(t *testing.T) {
	base, _ := url.Parse("https://example.org/spellstr/")
	assets, err := DiscoverAssets(strings.NewReader(indexHTML), "text/html; charset=utf-8", base)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{
		"./",
		"./styles.css",
		"./manifest.webmanifest",
		"./icons/icon-192.svg",
		"./app.js",
		"./icons/icon-512.svg",
	}
	if !reflect.DeepEqual(assets, want) {
		t.Fatalf("got %v, want %v", assets, want)
	}
}

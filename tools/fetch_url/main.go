// fetch_url downloads a page as readable text. Arguments arrive as one
// JSON string in argv[1]; the result goes to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxBodyBytes = 512 << 10

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		fail("usage: fetch_url '<json args>'")
	}
	var input struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(os.Args[1]), &input); err != nil {
		fail("bad arguments: " + err.Error())
	}
	if input.URL == "" {
		fail("url is required")
	}

	url := input.URL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get("https://r.jina.ai/" + url)
	if err != nil {
		fail(err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fail("HTTP error: " + resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		fail(err.Error())
	}
	os.Stdout.Write(body)
}

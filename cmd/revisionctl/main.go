// revisionctl is a small command line client for the revision REST API.
//
// Usage:
//
//	revisionctl -addr http://localhost:8080 seed <transcript-id>
//	revisionctl recognize <transcript-id> <audio-file>
//	revisionctl list <transcript-id>
//	revisionctl show <transcript-id> <version|latest>
//	revisionctl delete <transcript-id> <version>
//	revisionctl editor <transcript-id>
//	revisionctl paragraphs <transcript-id>
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"transcript-revision-service/internal/service/recognize/mock"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "service base URL")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
	}
	cmd, transcriptID := args[0], args[1]

	client := &http.Client{Timeout: 10 * time.Second}
	base := fmt.Sprintf("%s/v1/transcripts/%s", *addr, transcriptID)

	switch cmd {
	case "seed":
		doc := mock.Document()
		body, err := json.Marshal(doc)
		if err != nil {
			log.Fatalf("marshal document: %v", err)
		}
		do(client, http.MethodPost, base+"/original", body, "application/json")

	case "recognize":
		if len(args) < 3 {
			usage()
		}
		audio, err := os.ReadFile(args[2])
		if err != nil {
			log.Fatalf("read audio file: %v", err)
		}
		do(client, http.MethodPost, base+"/recognize", audio, "application/octet-stream")

	case "list":
		do(client, http.MethodGet, base+"/versions", nil, "")

	case "show":
		if len(args) < 3 {
			usage()
		}
		do(client, http.MethodGet, base+"/versions/"+args[2], nil, "")

	case "delete":
		if len(args) < 3 {
			usage()
		}
		do(client, http.MethodDelete, base+"/versions/"+args[2], nil, "")

	case "editor":
		do(client, http.MethodGet, base+"/editor", nil, "")

	case "paragraphs":
		do(client, http.MethodGet, base+"/paragraphs", nil, "")

	default:
		usage()
	}
}

func do(client *http.Client, method, url string, body []byte, contentType string) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	fmt.Printf("%s %s -> %s\n", method, url, resp.Status)
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read response: %v", err)
	}
	if len(payload) == 0 {
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		fmt.Println(string(payload))
		return
	}
	fmt.Println(pretty.String())
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: revisionctl [-addr URL] <seed|recognize|list|show|delete|editor|paragraphs> <transcript-id> [version|audio-file]")
	os.Exit(2)
}

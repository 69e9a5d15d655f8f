// Package httpclient fetches source media over HTTP as a stream.
//
// Bodies are never buffered: DoStream hands the caller the live response
// body, and only error responses are read in full so they can be
// classified.
//
//	client, err := httpclient.New(httpclient.Config{Timeout: 30 * time.Second})
//	resp, err := client.Open(ctx, "https://media.example.com/talk.flac")
//	defer resp.Close()
//	io.Copy(dst, resp.Body)
package httpclient

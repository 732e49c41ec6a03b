package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/pkg/errors"
)

// terminalConsent prints the authorize url and reads back the url the browser ended on.
func terminalConsent(in io.Reader, out io.Writer) auth.ConsentUI {
	reader := bufio.NewReader(in)
	return auth.ConsentUIFunc(func(ctx context.Context, authorizeURL string) (string, error) {
		fmt.Fprintf(out, "Open this url in a browser and sign in:\n\n  %s\n\nThen paste the address of the page you end on: ", authorizeURL)

		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return "", errors.Wrap(err, "[terminalConsent] no redirect url entered")
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return line, nil
	})
}

package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

//go:embed targets.json
var defaultTargets []byte

type target struct {
	Name     string            `json:"name"`
	Method   string            `json:"method"`
	Path     string            `json:"path"`
	Body     json.RawMessage   `json:"body,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Critical bool              `json:"critical"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

// shape is the part of an envelope response both backends must agree on.
// Timestamps, request ids and token values differ on every call and are ignored.
type shape struct {
	Status    int
	Success   *bool
	ErrorCode string
	DataKeys  []string
}

type comparison struct {
	Target         target
	Legacy         shape
	Go             shape
	Diffs          []string
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func (c comparison) ok() bool { return c.Error == nil && len(c.Diffs) == 0 }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("shadow_compare", flag.ContinueOnError)
	fs.SetOutput(out)
	goBase := fs.String("go-base", "http://localhost:8080", "Go API base URL")
	legacyBase := fs.String("legacy-base", "http://localhost:5000", "legacy API base URL")
	targetsPath := fs.String("targets", "", "path to a JSON targets file (default: built-in auth targets)")
	timeout := fs.Duration("timeout", 5*time.Second, "HTTP client timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	targets, err := loadTargets(*targetsPath)
	if err != nil {
		fmt.Fprintf(out, "failed to load targets: %v\n", err)
		return 2
	}

	client := &http.Client{Timeout: *timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		comp := compareTarget(client, *goBase, *legacyBase, t)
		if !comp.ok() {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(out, comparisons)
	fmt.Fprintf(out, "Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		return 1
	}
	return 0
}

func loadTargets(path string) ([]target, error) {
	data := defaultTargets
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	var tf targetFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, err
	}
	if len(tf.Targets) == 0 {
		return nil, errors.New("no targets defined")
	}
	return tf.Targets, nil
}

func compareTarget(client *http.Client, goBase, legacyBase string, tgt target) comparison {
	comp := comparison{Target: tgt}

	goShape, goDur, err := fetchShape(client, goBase, tgt)
	comp.DurationGo = goDur
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	legacyShape, legacyDur, err := fetchShape(client, legacyBase, tgt)
	comp.DurationLegacy = legacyDur
	if err != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}

	comp.Go, comp.Legacy = goShape, legacyShape
	comp.Diffs = diffShapes(legacyShape, goShape)
	return comp
}

func fetchShape(client *http.Client, base string, tgt target) (shape, time.Duration, error) {
	if client == nil {
		return shape{}, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body io.Reader
	if len(tgt.Body) > 0 {
		body = bytes.NewReader(tgt.Body)
	}
	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, body)
	if err != nil {
		return shape{}, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tgt.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return shape{}, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return shape{}, elapsed, fmt.Errorf("read body: %w", err)
	}
	return extractShape(resp.StatusCode, raw), elapsed, nil
}

func extractShape(status int, body []byte) shape {
	s := shape{Status: status}
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return s
	}
	s.Success = env.Success

	// The error member is an object with a code on one side and sometimes
	// a bare string on the other.
	var errObj struct {
		Code string `json:"code"`
	}
	if json.Unmarshal(env.Error, &errObj) == nil {
		s.ErrorCode = errObj.Code
	}

	var data map[string]json.RawMessage
	if json.Unmarshal(env.Data, &data) == nil {
		for k := range data {
			s.DataKeys = append(s.DataKeys, k)
		}
		sort.Strings(s.DataKeys)
	}
	return s
}

func diffShapes(legacy, current shape) []string {
	var diffs []string
	if legacy.Status != current.Status {
		diffs = append(diffs, fmt.Sprintf("status %d != %d", legacy.Status, current.Status))
	}
	if boolString(legacy.Success) != boolString(current.Success) {
		diffs = append(diffs, fmt.Sprintf("success %s != %s", boolString(legacy.Success), boolString(current.Success)))
	}
	if legacy.ErrorCode != "" && legacy.ErrorCode != current.ErrorCode {
		diffs = append(diffs, fmt.Sprintf("error.code %q != %q", legacy.ErrorCode, current.ErrorCode))
	}
	if missing := missingKeys(legacy.DataKeys, current.DataKeys); len(missing) > 0 {
		diffs = append(diffs, "data missing "+strings.Join(missing, ","))
	}
	return diffs
}

func missingKeys(want, have []string) []string {
	seen := make(map[string]struct{}, len(have))
	for _, k := range have {
		seen[k] = struct{}{}
	}
	var missing []string
	for _, k := range want {
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func boolString(b *bool) string {
	if b == nil {
		return "absent"
	}
	if *b {
		return "true"
	}
	return "false"
}

func printReport(out io.Writer, results []comparison) {
	fmt.Fprintln(out, "Shadow Compare Report")
	fmt.Fprintln(out, "======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if len(res.Diffs) > 0 {
			status = "DIFF"
		}
		label := res.Target.Name
		if label == "" {
			label = res.Target.Path
		}
		fmt.Fprintf(out, "[%s] %s %s (%s)\n", status, res.Target.Method, res.Target.Path, label)
		fmt.Fprintf(out, "  Go Status: %d (%s)\n", res.Go.Status, res.DurationGo)
		fmt.Fprintf(out, "  Legacy Status: %d (%s)\n", res.Legacy.Status, res.DurationLegacy)
		if res.Error != nil {
			fmt.Fprintf(out, "  Error: %v\n", res.Error)
			continue
		}
		for _, d := range res.Diffs {
			fmt.Fprintf(out, "  - %s\n", d)
		}
		fmt.Fprintf(out, "  Critical: %t\n", res.Target.Critical)
	}
}

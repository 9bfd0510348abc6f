package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Allure statuses.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
	StatusBroken = "broken"
)

type allureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type allureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

type allureStatusDetails struct {
	Message string `json:"message,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

type allureStep struct {
	Name          string               `json:"name"`
	Status        string               `json:"status"`
	StatusDetails *allureStatusDetails `json:"statusDetails,omitempty"`
	Stage         string               `json:"stage"`
	Start         int64                `json:"start"`
	Stop          int64                `json:"stop"`
	Steps         []*allureStep        `json:"steps,omitempty"`
	Attachments   []allureAttachment   `json:"attachments,omitempty"`
}

// AllureResult is the on-disk shape of one test result.
type AllureResult struct {
	UUID          string               `json:"uuid"`
	HistoryID     string               `json:"historyId"`
	Name          string               `json:"name"`
	FullName      string               `json:"fullName"`
	Status        string               `json:"status"`
	StatusDetails *allureStatusDetails `json:"statusDetails,omitempty"`
	Stage         string               `json:"stage"`
	Start         int64                `json:"start"`
	Stop          int64                `json:"stop"`
	Labels        []allureLabel        `json:"labels,omitempty"`
	Steps         []*allureStep        `json:"steps,omitempty"`
	Attachments   []allureAttachment   `json:"attachments,omitempty"`
}

// Allure writes allure-results files: one <uuid>-result.json per test,
// text attachments for errors and environment.properties.
type Allure struct {
	mu      sync.Mutex
	dir     string
	now     func() time.Time
	current *AllureResult
	open    []*allureStep
}

func NewAllure(dir string) *Allure {
	if dir == "" {
		dir = "allure-results"
	}
	return &Allure{dir: dir, now: time.Now}
}

// Dir returns the results directory.
func (a *Allure) Dir() string {
	return a.dir
}

func (a *Allure) millis() int64 {
	return a.now().UnixMilli()
}

func (a *Allure) StartTest(name string, labels map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := &AllureResult{
		UUID:      uuid.NewString(),
		HistoryID: name,
		Name:      name,
		FullName:  name,
		Stage:     "running",
		Start:     a.millis(),
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Labels = append(r.Labels, allureLabel{Name: k, Value: labels[k]})
	}
	a.current = r
	a.open = nil
}

// EndTest finalizes the running test and writes its result file.
func (a *Allure) EndTest(err error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.current
	if r == nil {
		return nil
	}
	for len(a.open) > 0 {
		a.closeStep(err)
	}
	r.Stop = a.millis()
	r.Stage = "finished"
	r.Status = StatusPassed
	if err != nil {
		r.Status = StatusFailed
		r.StatusDetails = &allureStatusDetails{Message: err.Error()}
	}
	a.current = nil

	data, mErr := json.MarshalIndent(r, "", "  ")
	if mErr != nil {
		return fmt.Errorf("marshal allure result: %w", mErr)
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(a.dir, r.UUID+"-result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write allure result: %w", err)
	}
	return nil
}

func (a *Allure) StartStep(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return
	}
	st := &allureStep{Name: name, Stage: "running", Start: a.millis()}
	a.appendStep(st)
	a.open = append(a.open, st)
}

func (a *Allure) EndStep(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.open) == 0 {
		return
	}
	a.closeStep(err)
}

func (a *Allure) closeStep(err error) {
	st := a.open[len(a.open)-1]
	a.open = a.open[:len(a.open)-1]
	st.Stop = a.millis()
	st.Stage = "finished"
	if st.Status != "" {
		return
	}
	st.Status = StatusPassed
	if err != nil {
		st.Status = StatusFailed
		st.StatusDetails = &allureStatusDetails{Message: err.Error()}
	}
}

// appendStep adds st to the innermost open step, or to the test itself.
func (a *Allure) appendStep(st *allureStep) {
	if n := len(a.open); n > 0 {
		parent := a.open[n-1]
		parent.Steps = append(parent.Steps, st)
		return
	}
	a.current.Steps = append(a.current.Steps, st)
}

func (a *Allure) message(sev Severity, msg, status string) *allureStep {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	ts := a.millis()
	st := &allureStep{
		Name:   fmt.Sprintf("%s: %s", strings.ToUpper(string(sev)), msg),
		Status: status,
		Stage:  "finished",
		Start:  ts,
		Stop:   ts,
	}
	a.appendStep(st)
	return st
}

func (a *Allure) Info(msg string) {
	a.message(SeverityInfo, msg, StatusPassed)
}

func (a *Allure) Success(msg string) {
	a.message(SeveritySuccess, msg, StatusPassed)
}

func (a *Allure) Warning(msg string) {
	a.message(SeverityWarning, msg, StatusBroken)
}

// Error records a failed step with the error and the caller's stack attached.
func (a *Allure) Error(msg string, err error) {
	st := a.message(SeverityError, msg, StatusFailed)
	if st == nil {
		return
	}
	details := &allureStatusDetails{Message: msg, Trace: string(debug.Stack())}
	if err != nil {
		details.Message = fmt.Sprintf("%s: %v", msg, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	st.StatusDetails = details
	source := uuid.NewString() + "-attachment.txt"
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return
	}
	body := details.Message + "\n\n" + details.Trace
	if err := os.WriteFile(filepath.Join(a.dir, source), []byte(body), 0o644); err != nil {
		return
	}
	st.Attachments = append(st.Attachments, allureAttachment{Name: "Stack trace", Source: source, Type: "text/plain"})
}

// WriteEnvironment writes environment.properties with one key=value per line.
func (a *Allure) WriteEnvironment(props map[string]string) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s=%s", k, props[k])
	}
	path := filepath.Join(a.dir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment properties: %w", err)
	}
	return nil
}

// Package monitoring turns a running simulation into a small web server that
// can be used to inspect and control it.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/sarchlab/memsim/monitoring/web"
	"github.com/sarchlab/memsim/translation"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Controller is the part of a simulation that the monitor can drive.
type Controller interface {
	Pause()
	Continue()
	IsPaused() bool
	WithLock(f func())
	Stats() translation.Stats
	Progress() (done, total int)
}

type namedComponent struct {
	name string
	comp any
}

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	sim             Controller
	components      []namedComponent
	portNumber      int
	openBrowser     bool
	profileDuration time.Duration

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithOpenBrowser makes StartServer open the monitor page in a browser.
func (m *Monitor) WithOpenBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterSimulation registers the simulation to control.
func (m *Monitor) RegisterSimulation(s Controller) {
	m.sim = s
}

// RegisterComponent register a component to be monitored.
func (m *Monitor) RegisterComponent(name string, c any) {
	for _, existing := range m.components {
		if existing.name == name {
			panic("component " + name + " already registered")
		}
	}

	m.components = append(m.components, namedComponent{name: name, comp: c})
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
		monitor:   m,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.resume)
	r.HandleFunc("/api/stats", m.stats)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", m.listenAddress())
	if err != nil {
		return "", fmt.Errorf("starting monitor: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := http.Serve(listener, m.router())
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url, nil
}

// listenAddress returns the address to listen on. Port numbers below 1000
// are rejected by WithPortNumber, so anything else that is set is used as is.
func (m *Monitor) listenAddress() string {
	if m.portNumber >= 1000 {
		return ":" + strconv.Itoa(m.portNumber)
	}

	return ":0"
}

func (m *Monitor) simulationOr503(w http.ResponseWriter) Controller {
	if m.sim == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, err := w.Write([]byte("No simulation registered"))
		dieOnErr(err)
	}

	return m.sim
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	s := m.simulationOr503(w)
	if s == nil {
		return
	}

	s.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) resume(w http.ResponseWriter, _ *http.Request) {
	s := m.simulationOr503(w)
	if s == nil {
		return
	}

	s.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type statsRsp struct {
	Paused        bool    `json:"paused"`
	Done          int     `json:"done"`
	Total         int     `json:"total"`
	Translated    uint64  `json:"translated"`
	PageFaults    uint64  `json:"page_faults"`
	TLBHits       uint64  `json:"tlb_hits"`
	TLBMisses     uint64  `json:"tlb_misses"`
	Evictions     uint64  `json:"evictions"`
	PageFaultRate float64 `json:"page_fault_rate"`
	TLBHitRate    float64 `json:"tlb_hit_rate"`
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	s := m.simulationOr503(w)
	if s == nil {
		return
	}

	stats := s.Stats()
	done, total := s.Progress()

	rsp := statsRsp{
		Paused:        s.IsPaused(),
		Done:          done,
		Total:         total,
		Translated:    stats.Translated,
		PageFaults:    stats.PageFaults,
		TLBHits:       stats.TLBHits,
		TLBMisses:     stats.TLBMisses,
		Evictions:     stats.Evictions,
		PageFaultRate: stats.PageFaultRate(),
		TLBHitRate:    stats.TLBHitRate(),
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.name)
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	m.serialize(w, component, nil)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	m.serialize(w, component, strings.Split(req.FieldName, "."))
}

// serialize writes the component state while the simulation cannot change it.
func (m *Monitor) serialize(w http.ResponseWriter, comp any, entry []string) {
	buf := bytes.NewBuffer(nil)

	var err error

	run := func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(comp)
		serializer.SetMaxDepth(1)

		if entry != nil {
			err = serializer.SetEntryPoint(entry)
			if err != nil {
				return
			}
		}

		err = serializer.Serialize(buf)
	}

	if m.sim != nil {
		m.sim.WithLock(run)
	} else {
		run()
	}

	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) any {
	for _, c := range m.components {
		if c.name == name {
			return c.comp
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

// Package monitoring serves an elaborated topology over HTTP for inspection.
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
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/chiptop/chiptop"
	"github.com/sarchlab/chiptop/sim"
)

// Monitor turns an elaborated topology into a server so that its components,
// ports and wires can be inspected.
type Monitor struct {
	topology   *chiptop.Topology
	components map[string]sim.Component
	names      []string
	portNumber int
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		components: make(map[string]sim.Component),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterTopology registers every component of the topology.
func (m *Monitor) RegisterTopology(t *chiptop.Topology) {
	m.topology = t

	for _, c := range t.Graph().Components() {
		m.RegisterComponent(c)
	}
}

// RegisterComponent registers a component to be monitored.
func (m *Monitor) RegisterComponent(c sim.Component) {
	if _, found := m.components[c.Name()]; !found {
		m.names = append(m.names, c.Name())
	}

	m.components[c.Name()] = c
}

// Handler returns the routes of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/topology", m.describeTopology)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/ports/{name}", m.listPorts)
	r.HandleFunc("/api/boundary", m.listBoundary)
	r.HandleFunc("/api/wires", m.listWires)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring topology with %s\n", url)

	handler := m.Handler()

	go func() {
		err := http.Serve(listener, handler)
		dieOnErr(err)
	}()

	return url
}

type topologyRsp struct {
	ID         string `json:"id"`
	Chip       string `json:"chip"`
	Components int    `json:"components"`
	Wires      int    `json:"wires"`
	Boundary   int    `json:"boundary"`
}

func (m *Monitor) describeTopology(w http.ResponseWriter, _ *http.Request) {
	if m.topology == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, topologyRsp{
		ID:         m.topology.ID(),
		Chip:       m.topology.Chip().Name(),
		Components: len(m.topology.Graph().Components()),
		Wires:      len(m.topology.Graph().Wires()),
		Boundary:   len(m.topology.BoundaryPorts()),
	})
}

func (m *Monitor) listComponents(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")

	names := make([]string, 0, len(m.names))
	for _, n := range m.names {
		if kind == "" || m.components[n].Kind() == kind {
			names = append(names, n)
		}
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type portRsp struct {
	Name     string   `json:"name"`
	Protocol string   `json:"protocol"`
	Dir      string   `json:"dir"`
	Width    int      `json:"width"`
	Clock    string   `json:"clock"`
	Peers    []string `json:"peers"`
}

func makePortRsp(p sim.Port) portRsp {
	spec := p.Spec()

	rsp := portRsp{
		Name:     p.Name(),
		Protocol: spec.Protocol.String(),
		Dir:      spec.Dir.String(),
		Width:    spec.Width,
		Clock:    spec.Clock.String(),
		Peers:    []string{},
	}

	for _, wire := range p.Wires() {
		rsp.Peers = append(rsp.Peers, wire.TheOtherPort(p).Name())
	}

	return rsp
}

func (m *Monitor) listPorts(w http.ResponseWriter, r *http.Request) {
	component := m.findComponentOr404(w, mux.Vars(r)["name"])
	if component == nil {
		return
	}

	writeJSON(w, portsRsp(component.Ports()))
}

func (m *Monitor) listBoundary(w http.ResponseWriter, r *http.Request) {
	if m.topology == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	ports := m.topology.BoundaryPorts()

	if name := r.URL.Query().Get("protocol"); name != "" {
		p, err := sim.ParseProtocol(name)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}

		selected := make([]sim.Port, 0, len(ports))
		for _, port := range ports {
			if port.Spec().Protocol == p {
				selected = append(selected, port)
			}
		}

		ports = selected
	}

	writeJSON(w, portsRsp(ports))
}

func portsRsp(ports []sim.Port) []portRsp {
	rsp := make([]portRsp, 0, len(ports))
	for _, p := range ports {
		rsp = append(rsp, makePortRsp(p))
	}

	return rsp
}

type wireRsp struct {
	ID    string `json:"id"`
	PortA string `json:"port_a"`
	PortB string `json:"port_b"`
}

func (m *Monitor) listWires(w http.ResponseWriter, r *http.Request) {
	if m.topology == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	limit, offset, err := parsePagination(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	wires := m.topology.Graph().Wires()
	sort.Slice(wires, func(i, j int) bool {
		return wires[i].Name() < wires[j].Name()
	})

	wires = paginate(wires, limit, offset)

	rsp := make([]wireRsp, 0, len(wires))
	for _, wire := range wires {
		rsp = append(rsp, wireRsp{
			ID:    wire.ID(),
			PortA: wire.PortA().Name(),
			PortB: wire.PortB().Name(),
		})
	}

	writeJSON(w, rsp)
}

func parsePagination(r *http.Request) (limit, offset int, err error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "0"
	}

	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0, 0, fmt.Errorf("invalid limit %q", limitStr)
	}

	offsetStr := r.URL.Query().Get("offset")
	if offsetStr == "" {
		offsetStr = "0"
	}

	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset %q", offsetStr)
	}

	return limit, offset, nil
}

// paginate selects limit elements starting at offset. A zero limit selects
// everything after offset.
func paginate[T any](s []T, limit, offset int) []T {
	if offset >= len(s) {
		return nil
	}

	s = s[offset:]

	if limit > 0 && limit < len(s) {
		s = s[:limit]
	}

	return s
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Component {
	component, found := m.components[name]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Component not found"))
		dieOnErr(err)

		return nil
	}

	return component
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

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

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

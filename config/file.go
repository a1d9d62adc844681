package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/chiptop/sim"
)

// A Catalog maps device kinds used in configuration files to builders.
type Catalog map[string]DeviceBuilder

type fileConfig struct {
	Memory     *memorySection  `yaml:"memory"`
	NarrowLink *narrowSection  `yaml:"narrowLink"`
	Bus        *busSection     `yaml:"bus"`
	MMIO       *mmioSection    `yaml:"mmio"`
	Debug      *debugSection   `yaml:"debug"`
	Success    bool            `yaml:"success"`
	ExternalIO string          `yaml:"externalIO"`
	AddressMap []regionSection `yaml:"addressMap"`
	ExtraPorts []extraSection  `yaml:"extraPorts"`
	ConnectBy  string          `yaml:"connectExtraPorts"`
	Devices    []deviceSection `yaml:"devices"`
}

type memorySection struct {
	Protocol string `yaml:"protocol"`
	Channels *int   `yaml:"channels"`
	Async    bool   `yaml:"async"`
}

type narrowSection struct {
	Width int `yaml:"width"`
}

type busSection struct {
	Channels  int  `yaml:"channels"`
	Async     bool `yaml:"async"`
	BeatBytes int  `yaml:"beatBytes"`
}

type mmioSection struct {
	AXI4      int   `yaml:"axi4"`
	AHB       int   `yaml:"ahb"`
	TL        int   `yaml:"tl"`
	Async     bool  `yaml:"async"`
	BeatBytes int   `yaml:"beatBytes"`
	Export    *bool `yaml:"export"`
}

type debugSection struct {
	Transport string `yaml:"transport"`
	Async     bool   `yaml:"async"`
}

type regionSection struct {
	Name     string          `yaml:"name"`
	Base     uint64          `yaml:"base"`
	Size     uint64          `yaml:"size"`
	Protocol string          `yaml:"protocol"`
	Device   string          `yaml:"device"`
	Children []regionSection `yaml:"children"`
}

type extraSection struct {
	Name     string `yaml:"name"`
	Protocol string `yaml:"protocol"`
	Dir      string `yaml:"dir"`
	Width    int    `yaml:"width"`
	Clock    string `yaml:"clock"`
}

type deviceSection struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	MMIOPorts   int    `yaml:"mmioPorts"`
	ClientPorts int    `yaml:"clientPorts"`
}

// LoadFile reads a YAML configuration file into a builder.
func LoadFile(path string, catalog Catalog) (Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Builder{}, errors.Wrapf(err, "reading %s", path)
	}

	b, err := Parse(data, catalog)
	if err != nil {
		return Builder{}, errors.Wrapf(err, "loading %s", path)
	}

	return b, nil
}

// Parse reads a YAML configuration document into a builder. Unknown keys are
// rejected.
func Parse(data []byte, catalog Catalog) (Builder, error) {
	var f fileConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		return Builder{}, errors.Wrap(sim.ErrConfigInconsistent, err.Error())
	}

	b := MakeBuilder()

	steps := []func(Builder) (Builder, error){
		f.applyMemory,
		f.applyBus,
		f.applyMMIO,
		f.applyDebug,
		f.applyAddressMap,
		f.applyExtraPorts,
		func(b Builder) (Builder, error) { return f.applyDevices(b, catalog) },
	}

	for _, step := range steps {
		var err error
		if b, err = step(b); err != nil {
			return Builder{}, err
		}
	}

	if f.NarrowLink != nil {
		b = b.WithNarrowLink(f.NarrowLink.Width)
	}

	if f.ExternalIO != "" {
		b = b.WithExternalIORegion(f.ExternalIO)
	}

	return b.WithSuccess(f.Success), nil
}

func (f *fileConfig) applyMemory(b Builder) (Builder, error) {
	if f.Memory == nil {
		return b, nil
	}

	if f.Memory.Protocol != "" {
		p, err := parseFamily(f.Memory.Protocol)
		if err != nil {
			return b, errors.Wrap(err, "memory")
		}

		b = b.WithMemoryProtocol(p)
	}

	if f.Memory.Channels != nil {
		b = b.WithMemoryChannels(*f.Memory.Channels)
	}

	return b.WithAsyncMemory(f.Memory.Async), nil
}

func (f *fileConfig) applyBus(b Builder) (Builder, error) {
	if f.Bus == nil {
		return b, nil
	}

	b = b.WithBusChannels(f.Bus.Channels).WithAsyncBus(f.Bus.Async)
	if f.Bus.BeatBytes != 0 {
		b = b.WithBusBeatBytes(f.Bus.BeatBytes)
	}

	return b, nil
}

func (f *fileConfig) applyMMIO(b Builder) (Builder, error) {
	if f.MMIO == nil {
		return b, nil
	}

	b = b.
		WithMMIOChannels(sim.ProtocolAXI4, f.MMIO.AXI4).
		WithMMIOChannels(sim.ProtocolAHB, f.MMIO.AHB).
		WithMMIOChannels(sim.ProtocolTL, f.MMIO.TL).
		WithAsyncMMIO(f.MMIO.Async)

	if f.MMIO.BeatBytes != 0 {
		b = b.WithMMIOBeatBytes(f.MMIO.BeatBytes)
	}

	if f.MMIO.Export != nil {
		b = b.WithMMIOExport(*f.MMIO.Export)
	}

	return b, nil
}

func (f *fileConfig) applyDebug(b Builder) (Builder, error) {
	if f.Debug == nil {
		return b, nil
	}

	t, err := ParseDebugTransport(f.Debug.Transport)
	if err != nil {
		return b, errors.Wrap(sim.ErrConfigInconsistent, err.Error())
	}

	return b.WithDebugTransport(t).WithAsyncDebug(f.Debug.Async), nil
}

func (f *fileConfig) applyAddressMap(b Builder) (Builder, error) {
	if len(f.AddressMap) == 0 {
		return b, nil
	}

	regions, err := convertRegions(f.AddressMap)
	if err != nil {
		return b, err
	}

	return b.WithAddressMap(AddressMap{Regions: regions}), nil
}

func convertRegions(sections []regionSection) ([]Region, error) {
	regions := make([]Region, 0, len(sections))

	for _, s := range sections {
		r := Region{
			Name:   s.Name,
			Base:   s.Base,
			Size:   s.Size,
			Device: s.Device,
		}

		if s.Protocol != "" {
			p, err := parseFamily(s.Protocol)
			if err != nil {
				return nil, errors.Wrapf(err, "region %s", s.Name)
			}

			r.Protocol = p
		}

		children, err := convertRegions(s.Children)
		if err != nil {
			return nil, err
		}

		if len(children) > 0 {
			r.Children = children
		}

		regions = append(regions, r)
	}

	return regions, nil
}

func (f *fileConfig) applyExtraPorts(b Builder) (Builder, error) {
	for _, s := range f.ExtraPorts {
		p, err := sim.ParseProtocol(s.Protocol)
		if err != nil {
			return b, errors.Wrapf(sim.ErrConfigInconsistent,
				"extra port %s: %s", s.Name, err)
		}

		dir, err := sim.ParseDirection(s.Dir)
		if err != nil {
			return b, errors.Wrapf(sim.ErrConfigInconsistent,
				"extra port %s: %s", s.Name, err)
		}

		width := s.Width
		if width == 0 {
			width = 1
		}

		b = b.WithExtraPort(ExtraPortDecl{
			Name: s.Name,
			Spec: sim.PortSpec{
				Protocol: p,
				Dir:      dir,
				Width:    width,
				Clock:    sim.ClockDomain(s.Clock),
			},
		})
	}

	switch f.ConnectBy {
	case "":
	case "name":
		b = b.WithExtraPortsConnector(ConnectExtraPortsByName)
	default:
		return b, errors.Wrapf(sim.ErrConfigInconsistent,
			"unknown extra-port connection strategy %q", f.ConnectBy)
	}

	return b, nil
}

func (f *fileConfig) applyDevices(b Builder, catalog Catalog) (Builder, error) {
	for _, s := range f.Devices {
		kind := s.Kind
		if kind == "" {
			kind = s.Name
		}

		build, found := catalog[kind]
		if !found {
			return b, errors.Wrapf(sim.ErrConfigInconsistent,
				"device %s has unknown kind %q", s.Name, kind)
		}

		b = b.WithDevice(Device{
			Name:        s.Name,
			MMIOPorts:   s.MMIOPorts,
			ClientPorts: s.ClientPorts,
			Build:       build,
		})
	}

	return b, nil
}

func parseFamily(s string) (sim.Protocol, error) {
	p, err := sim.ParseProtocol(s)
	if err != nil || !p.IsBusFamily() {
		return sim.ProtocolNone, errors.Wrapf(sim.ErrConfigInconsistent,
			"%q is not a bus family", s)
	}

	return p, nil
}

package router

import (
	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/streamidrouter/pad"
	"github.com/xaionaro-go/streamidrouter/types"
)

const (
	DefaultPadNamePrefix = "src"
)

type Config struct {
	Name           string
	PadNamePrefix  string
	Caps           types.Caps
	Policy         Policy
	PadFactory     pad.Factory
	Reporter       element.Reporter
	Observers      []Observer
	BroadcastKinds []event.Kind
}

func defaultConfig() Config {
	return Config{
		Name:           "streamidrouter",
		PadNamePrefix:  DefaultPadNamePrefix,
		Caps:           types.CapsAny,
		Policy:         PolicyRetainAll,
		PadFactory:     pad.DefaultFactory,
		BroadcastKinds: []event.Kind{event.KindCaps, event.KindSegment},
	}
}

type Option interface {
	apply(*Config)
}
type Options []Option

func (opts Options) apply(cfg *Config) {
	for _, opt := range opts {
		opt.apply(cfg)
	}
}

func (opts Options) config() Config {
	cfg := defaultConfig()
	opts.apply(&cfg)
	return cfg
}

type OptionName string

func (opt OptionName) apply(cfg *Config) {
	cfg.Name = string(opt)
}

// OptionPadNamePrefix sets the prefix of the names of output pads:
// "<prefix>_<index>".
type OptionPadNamePrefix string

func (opt OptionPadNamePrefix) apply(cfg *Config) {
	cfg.PadNamePrefix = string(opt)
}

// OptionTemplateCaps sets the caps of the output pad template.
type OptionTemplateCaps types.Caps

func (opt OptionTemplateCaps) apply(cfg *Config) {
	cfg.Caps = types.Caps(opt)
}

type OptionPolicy Policy

func (opt OptionPolicy) apply(cfg *Config) {
	cfg.Policy = Policy(opt)
}

type OptionPadFactoryValue struct {
	pad.Factory
}

func (opt OptionPadFactoryValue) apply(cfg *Config) {
	cfg.PadFactory = opt.Factory
}

func OptionPadFactory(factory pad.Factory) OptionPadFactoryValue {
	return OptionPadFactoryValue{factory}
}

type OptionReporterValue struct {
	element.Reporter
}

func (opt OptionReporterValue) apply(cfg *Config) {
	cfg.Reporter = opt.Reporter
}

// OptionReporter sets where the diagnostic messages (warnings about
// malformed input, errors on pad creation) are posted to.
func OptionReporter(reporter element.Reporter) OptionReporterValue {
	return OptionReporterValue{reporter}
}

type OptionObserverValue struct {
	Observer
}

func (opt OptionObserverValue) apply(cfg *Config) {
	cfg.Observers = append(cfg.Observers, opt.Observer)
}

func OptionObserver(observer Observer) OptionObserverValue {
	return OptionObserverValue{observer}
}

// OptionBroadcastKinds overrides which kinds of (sticky) events are sent
// to every output pad instead of only the active one.
type OptionBroadcastKinds []event.Kind

func (opt OptionBroadcastKinds) apply(cfg *Config) {
	cfg.BroadcastKinds = opt
}

package ble

import (
	"sync"

	"tinygo.org/x/bluetooth"

	"sentry-link/internal/radio"
)

// tinygoStack adapta tinygo.org/x/bluetooth a stack.
type tinygoStack struct {
	adapter *bluetooth.Adapter

	mu  sync.Mutex
	adv *bluetooth.Advertisement
}

func newTinygoStack() *tinygoStack {
	return &tinygoStack{adapter: bluetooth.DefaultAdapter}
}

func (s *tinygoStack) Enable() error { return s.adapter.Enable() }

// OnConnect solo tiene efecto en las pilas que llaman al connect handler;
// en Linux lo cubre bluezPresence.
func (s *tinygoStack) OnConnect(fn func(addr string, connected bool)) {
	s.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		fn(device.Address.String(), connected)
	})
}

func (s *tinygoStack) Register(onWrite func(value []byte)) (map[radio.Channel]characteristic, error) {
	handles := make(map[radio.Channel]characteristic, len(radio.Channels))
	configs := make([]bluetooth.CharacteristicConfig, 0, len(radio.Channels))
	for _, ch := range radio.Channels {
		h := &bluetooth.Characteristic{}
		handles[ch] = h
		cfg := bluetooth.CharacteristicConfig{
			Handle: h,
			UUID:   CharacteristicUUIDs[ch],
			Flags:  permissions(ch),
		}
		if ch == radio.ChannelConfig {
			cfg.WriteEvent = func(_ bluetooth.Connection, _ int, value []byte) {
				onWrite(value)
			}
		}
		configs = append(configs, cfg)
	}

	if err := s.adapter.AddService(&bluetooth.Service{
		UUID:            ServiceUUID,
		Characteristics: configs,
	}); err != nil {
		return nil, err
	}
	return handles, nil
}

// Advertise configura el anuncio la primera vez y lo (re)inicia.
func (s *tinygoStack) Advertise(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adv == nil {
		adv := s.adapter.DefaultAdvertisement()
		if err := adv.Configure(bluetooth.AdvertisementOptions{
			LocalName:    name,
			ServiceUUIDs: []bluetooth.UUID{ServiceUUID},
		}); err != nil {
			return err
		}
		s.adv = adv
	}
	// BlueZ rechaza Start si el anuncio sigue registrado
	_ = s.adv.Stop()
	return s.adv.Start()
}

func (s *tinygoStack) StopAdvertising() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adv == nil {
		return nil
	}
	return s.adv.Stop()
}

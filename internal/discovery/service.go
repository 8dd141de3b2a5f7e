// Package discovery anuncia o servidor na rede local via mDNS e procura
// outras instâncias.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"mission_go/pkg/logger"
)

const (
	// ServiceDomain é o domínio para descoberta na rede
	ServiceDomain = "local."

	// ServiceType define o tipo de serviço
	ServiceType = "_missioncontrol._tcp"

	// Version vai no TXT para o painel saber com quem fala
	Version = "1.0"
)

var log = logger.For("discovery")

// Info são os metadados publicados no registro TXT
type Info struct {
	Transport string
	Cameras   int
	APIPath   string
	WSPath    string
}

// registerFunc permite trocar o zeroconf.Register nos testes
type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (shutdowner, error)

type shutdowner interface {
	Shutdown()
}

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface) (shutdowner, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// DiscoveryService gerencia o anúncio do serviço na rede local
type DiscoveryService struct {
	server       shutdowner
	register     registerFunc
	localIP      func() (string, error)
	mutex        sync.Mutex
	instanceName string
	port         int
	info         Info
	running      bool
	serverIP     string
}

// NewDiscoveryService cria um novo serviço de descoberta
func NewDiscoveryService(port int, info Info) *DiscoveryService {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "mission"
	}

	return &DiscoveryService{
		register:     zeroconfRegister,
		localIP:      getLocalIP,
		port:         port,
		info:         info,
		instanceName: fmt.Sprintf("%s-mission", hostname),
	}
}

// Start inicia o anúncio
func (s *DiscoveryService) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	ip, err := s.localIP()
	if err != nil {
		return fmt.Errorf("erro ao obter IP local: %w", err)
	}
	s.serverIP = ip

	server, err := s.register(s.instanceName, ServiceType, ServiceDomain, s.port, s.txtRecords(ip), nil)
	if err != nil {
		return fmt.Errorf("erro ao registrar serviço de descoberta: %w", err)
	}

	s.server = server
	s.running = true

	log.Infof("Serviço de descoberta iniciado em %s:%d (mDNS: %s.%s)",
		ip, s.port, s.instanceName, ServiceType)

	return nil
}

func (s *DiscoveryService) txtRecords(ip string) []string {
	return []string{
		"version=" + Version,
		"ip=" + ip,
		"name=Mission Control",
		"transport=" + s.info.Transport,
		fmt.Sprintf("cameras=%d", s.info.Cameras),
		"api=" + s.info.APIPath,
		"ws=" + s.info.WSPath,
	}
}

// Stop para o anúncio
func (s *DiscoveryService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	if s.server != nil {
		s.server.Shutdown()
		s.server = nil
	}
	s.running = false

	log.Infof("Serviço de descoberta parado")
}

// GetServerIP retorna o IP anunciado
func (s *DiscoveryService) GetServerIP() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.serverIP
}

// GetPort retorna a porta do servidor
func (s *DiscoveryService) GetPort() int {
	return s.port
}

// GetInstanceName retorna o nome da instância do serviço
func (s *DiscoveryService) GetInstanceName() string {
	return s.instanceName
}

// IsRunning verifica se o serviço está em execução
func (s *DiscoveryService) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// getLocalIP obtém o primeiro IPv4 que não é loopback
func getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "", fmt.Errorf("não foi possível determinar o endereço IP local")
}

// Instance é um servidor encontrado na rede
type Instance struct {
	Name      string            `json:"name"`
	Host      string            `json:"host"`
	Addresses []string          `json:"addresses"`
	Port      int               `json:"port"`
	Text      map[string]string `json:"text"`
}

// Browse procura instâncias por timeout e retorna as encontradas, em ordem de nome
func Browse(ctx context.Context, timeout time.Duration) ([]Instance, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar resolver mDNS: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	found := map[string]Instance{}
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				inst := fromEntry(entry)
				found[inst.Name] = inst
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("erro ao procurar %s: %w", ServiceType, err)
	}

	<-done

	out := make([]Instance, 0, len(found))
	for _, inst := range found {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func fromEntry(entry *zeroconf.ServiceEntry) Instance {
	addresses := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addresses = append(addresses, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addresses = append(addresses, ip.String())
	}

	return Instance{
		Name:      entry.Instance,
		Host:      entry.HostName,
		Addresses: addresses,
		Port:      entry.Port,
		Text:      ParseText(entry.Text),
	}
}

// ParseText converte os pares chave=valor do TXT em mapa
func ParseText(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, rec := range records {
		key, value, ok := strings.Cut(rec, "=")
		if !ok {
			out[rec] = ""
			continue
		}
		out[key] = value
	}
	return out
}

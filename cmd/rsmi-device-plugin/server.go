package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path"
	"time"

	"google.golang.org/grpc"
	pluginapi "k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"
)

const serverStartTimeout = 5 * time.Second

// AMDGPUDevicePlugin serves the kubelet device-plugin API for AMD GPUs.
type AMDGPUDevicePlugin struct {
	log          *slog.Logger
	smi          SMI
	resourceName string
	socket       string

	devs   []*pluginapi.Device
	server *grpc.Server
	health chan *pluginapi.Device
	stop   chan struct{}
	cancel context.CancelFunc
}

// NewAMDGPUDevicePlugin builds a plugin instance; Serve brings it up.
func NewAMDGPUDevicePlugin(log *slog.Logger, smi SMI, resourceName string, socket string) *AMDGPUDevicePlugin {
	return &AMDGPUDevicePlugin{
		log:          log,
		smi:          smi,
		resourceName: resourceName,
		socket:       socket,
	}
}

// Serve starts the grpc server and registers with the kubelet.
func (p *AMDGPUDevicePlugin) Serve(devType string) error {
	if err := p.Start(devType); err != nil {
		return fmt.Errorf("could not start device plugin: %w", err)
	}
	p.log.Info("Starting to serve", "socket", p.socket)

	if err := p.Register(pluginapi.KubeletSocket, p.resourceName); err != nil {
		p.Stop()
		return fmt.Errorf("could not register device plugin: %w", err)
	}
	p.log.Info("Registered device plugin with kubelet", "resource", p.resourceName)
	return nil
}

// Start discovers devices, brings the grpc server up on the plugin socket
// and arms the fault watcher.
func (p *AMDGPUDevicePlugin) Start(devType string) error {
	devs, err := NewDeviceManager(p.log, p.smi, devType).Devices()
	if err != nil {
		return err
	}
	p.devs = devs
	p.health = make(chan *pluginapi.Device)
	p.stop = make(chan struct{})

	if err := os.Remove(p.socket); err != nil && !os.IsNotExist(err) {
		return err
	}
	sock, err := net.Listen("unix", p.socket)
	if err != nil {
		return err
	}

	p.server = grpc.NewServer()
	pluginapi.RegisterDevicePluginServer(p.server, p)

	go p.server.Serve(sock)

	// Wait for the server to come up before registering.
	conn, err := dial(p.socket, serverStartTimeout)
	if err != nil {
		return err
	}
	conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go watchFaults(ctx, p.smi, p.devs, p.health)

	return nil
}

// Stop tears the grpc server down and releases the socket.
func (p *AMDGPUDevicePlugin) Stop() error {
	if p.server == nil {
		return nil
	}
	p.log.Info("Stopping device plugin server", "socket", p.socket)
	p.cancel()
	p.server.Stop()
	p.server = nil
	close(p.stop)
	return os.Remove(p.socket)
}

// Register announces the plugin socket and resource name to the kubelet.
func (p *AMDGPUDevicePlugin) Register(kubeletEndpoint, resourceName string) error {
	conn, err := dial(kubeletEndpoint, serverStartTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	client := pluginapi.NewRegistrationClient(conn)
	req := &pluginapi.RegisterRequest{
		Version:      pluginapi.Version,
		Endpoint:     path.Base(p.socket),
		ResourceName: resourceName,
	}
	_, err = client.Register(context.Background(), req)
	return err
}

// ListAndWatch streams the device list and re-streams it whenever the
// fault watcher marks a device unhealthy.
func (p *AMDGPUDevicePlugin) ListAndWatch(e *pluginapi.Empty, s pluginapi.DevicePlugin_ListAndWatchServer) error {
	if err := s.Send(&pluginapi.ListAndWatchResponse{Devices: p.devs}); err != nil {
		return err
	}

	for {
		select {
		case <-p.stop:
			return nil
		case d := <-p.health:
			d.Health = pluginapi.Unhealthy
			if err := s.Send(&pluginapi.ListAndWatchResponse{Devices: p.devs}); err != nil {
				return err
			}
		}
	}
}

// Allocate mounts /dev/kfd and each allocated device's DRM render node
// into the container.
func (p *AMDGPUDevicePlugin) Allocate(ctx context.Context, reqs *pluginapi.AllocateRequest) (*pluginapi.AllocateResponse, error) {
	response := &pluginapi.AllocateResponse{}
	for _, req := range reqs.ContainerRequests {
		containerResponse := &pluginapi.ContainerAllocateResponse{
			Devices: []*pluginapi.DeviceSpec{
				{
					HostPath:      "/dev/kfd",
					ContainerPath: "/dev/kfd",
					Permissions:   "rw",
				},
			},
		}

		for _, id := range req.DevicesIDs {
			if getDevice(p.devs, id) == nil {
				return nil, fmt.Errorf("invalid allocation request: unknown device: %s", id)
			}
			handle, err := p.smi.DeviceHandleBySerial(id)
			if err != nil {
				return nil, fmt.Errorf("invalid allocation request: device %s: %w", id, err)
			}
			minor, err := handle.DRMRenderMinor()
			if err != nil {
				return nil, fmt.Errorf("could not resolve render node for device %s: %w", id, err)
			}
			renderNode := fmt.Sprintf("/dev/dri/renderD%d", minor)
			containerResponse.Devices = append(containerResponse.Devices, &pluginapi.DeviceSpec{
				HostPath:      renderNode,
				ContainerPath: renderNode,
				Permissions:   "rw",
			})
			p.log.Info("Allocated device", "device_id", id, "render_node", renderNode)
		}

		response.ContainerResponses = append(response.ContainerResponses, containerResponse)
	}
	return response, nil
}

// GetDevicePluginOptions returns the plugin's (empty) option set.
func (p *AMDGPUDevicePlugin) GetDevicePluginOptions(ctx context.Context, e *pluginapi.Empty) (*pluginapi.DevicePluginOptions, error) {
	return &pluginapi.DevicePluginOptions{}, nil
}

// PreStartContainer is unused by this plugin.
func (p *AMDGPUDevicePlugin) PreStartContainer(ctx context.Context, req *pluginapi.PreStartContainerRequest) (*pluginapi.PreStartContainerResponse, error) {
	return &pluginapi.PreStartContainerResponse{}, nil
}

// GetPreferredAllocation is unused by this plugin.
func (p *AMDGPUDevicePlugin) GetPreferredAllocation(ctx context.Context, req *pluginapi.PreferredAllocationRequest) (*pluginapi.PreferredAllocationResponse, error) {
	return &pluginapi.PreferredAllocationResponse{}, nil
}

func dial(unixSocketPath string, timeout time.Duration) (*grpc.ClientConn, error) {
	c, err := grpc.Dial(unixSocketPath, grpc.WithInsecure(), grpc.WithBlock(),
		grpc.WithTimeout(timeout),
		grpc.WithDialer(func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("unix", addr, timeout)
		}),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

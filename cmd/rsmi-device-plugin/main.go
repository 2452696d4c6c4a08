package main

import (
	"log/slog"
	"os"
	"syscall"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"
	pluginapi "k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"
)

const serverSock = pluginapi.DevicePluginPath + "amdgpu.sock"

func main() {
	resourceName := flag.String("resource-name", "amd.com/gpu", "resource name advertised to the kubelet")
	libraryPath := flag.String("library-path", "", "override the ROCm SMI library soname or path")
	fakeConfig := flag.String("fake-config", "", "yaml config for the fake SMI backend (fakersmi builds)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	log.Info("Starting AMD GPU device plugin")

	smi := wrapSMI(getSMI(Options{
		LibraryPath:    *libraryPath,
		FakeConfigPath: *fakeConfig,
	}))
	if err := smi.Initialize(); err != nil {
		log.Error("Failed to initialize SMI backend", "error", err)
		os.Exit(1)
	}
	defer smi.Shutdown()

	devType, err := smi.DeviceTypeName()
	if err != nil {
		log.Error("Failed to determine device type", "error", err)
		os.Exit(1)
	}
	log.Info("Detected devices", "type", devType)

	watcher, err := newFSWatcher(pluginapi.DevicePluginPath)
	if err != nil {
		log.Error("Failed to create watcher for kubelet socket dir", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()

	sigs := newOSWatcher(syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var plugin *AMDGPUDevicePlugin
	restart := true

events:
	for {
		if restart {
			if plugin != nil {
				plugin.Stop()
			}
			plugin = NewAMDGPUDevicePlugin(log, smi, *resourceName, serverSock)
			if err := plugin.Serve(devType); err != nil {
				log.Error("Could not contact kubelet, retrying", "error", err)
			} else {
				restart = false
			}
		}

		select {
		case event := <-watcher.Events:
			if event.Name == pluginapi.KubeletSocket && event.Op&fsnotify.Create == fsnotify.Create {
				log.Info("Kubelet socket created, restarting", "socket", pluginapi.KubeletSocket)
				restart = true
			}
		case err := <-watcher.Errors:
			log.Error("Kubelet socket watcher error", "error", err)
		case s := <-sigs:
			switch s {
			case syscall.SIGHUP:
				log.Info("Received SIGHUP, restarting")
				restart = true
			default:
				log.Info("Received signal, shutting down", "signal", s)
				plugin.Stop()
				break events
			}
		}
	}
}

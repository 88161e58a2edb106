package session

import (
	"context"

	"github.com/nbforge/kernelbridge/kernel"
)

// registryKernel adapts a resolved session into a kernel handle.
type registryKernel struct {
	sess kernel.Session
}

func (k registryKernel) Session() kernel.Session {
	return k.sess
}

// registryProvider resolves kernels from the registry's tracked sessions.
type registryProvider struct {
	registry *Registry
}

// Provider exposes the registry as a kernel.Provider for the completion
// adapter. Notebooks whose sessions are still being created resolve to no
// kernel; the adapter degrades to an empty completion list.
func (r *Registry) Provider() kernel.Provider {
	return registryProvider{registry: r}
}

func (p registryProvider) KernelFor(notebook kernel.Notebook) kernel.Kernel {
	future := p.registry.GetSession(notebook)
	if future == nil {
		return nil
	}

	select {
	case <-future.Done():
	default:
		// Still being created
		return nil
	}

	sess, err := future.Await(context.Background())
	if err != nil || sess == nil {
		return nil
	}
	return registryKernel{sess: sess}
}

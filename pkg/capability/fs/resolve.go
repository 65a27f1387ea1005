package fs

import (
	"github.com/ariacomputecompany/fozzy/pkg/capability"
	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
)

// ResolveRead wraps a host read through capability.ResolveHost.
func ResolveRead(dlog *decisionlog.Log, label string, host *HostBackend, path string) (string, error) {
	payload, err := capability.ResolveHost(dlog, decisionlog.KindProcResult, label, func() (interface{}, error) {
		return host.Read(path)
	})
	if err != nil {
		return "", err
	}
	s, _ := payload.(string)
	return s, nil
}

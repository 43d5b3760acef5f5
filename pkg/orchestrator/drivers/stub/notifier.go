package stub

import "context"

// InstanceNotifier is an in-memory drivers.InstanceNotifier.
type InstanceNotifier struct {
	parent *Set
}

func (n *InstanceNotifier) NotifyShuttingDown(ctx context.Context, hostname, reason string) error {
	return n.parent.record("NotifyShuttingDown", hostname, reason)
}

// Package ops implements owner-only operational controls: the process-wide
// kill-switch and the store's authorized-caller allow-list.
package ops

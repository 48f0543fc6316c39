package env

import (
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"amm101ctl/pkg/artifacts"
	"amm101ctl/pkg/validate"
)

// CommandExecutor abstracts PATH lookups and command output so checks can be
// tested without the real tools installed.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	Output(name string, args ...string) (string, error)
}

// OSExecutor runs real commands.
type OSExecutor struct{}

func (OSExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OSExecutor) Output(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output() // #nosec G204 -- only called with fixed tool names
	return string(out), err
}

// CheckResult holds the status of prerequisite checks
type CheckResult struct {
	HasNode       bool
	NodeVer       string
	HasNpx        bool
	HasPrivateKey bool
	PrivateKeyErr string
	// Artifacts maps each contract name to whether its artifact was found.
	Artifacts map[string]bool
}

// Ready reports whether everything needed for a deployment is present. Node
// and npx are only needed to run the printed verify commands.
func (c *CheckResult) Ready() bool {
	if !c.HasPrivateKey {
		return false
	}
	for _, ok := range c.Artifacts {
		if !ok {
			return false
		}
	}
	return true
}

// CheckPrerequisites verifies the deployer key, the compiled artifacts and
// the node tooling.
func CheckPrerequisites(ex CommandExecutor, artifactsDir string, contracts []string, privateKey string) *CheckResult {
	res := &CheckResult{Artifacts: make(map[string]bool, len(contracts))}

	if out, err := ex.Output("node", "--version"); err == nil {
		res.HasNode = true
		res.NodeVer = strings.TrimSpace(out)
	}
	if _, err := ex.LookPath("npx"); err == nil {
		res.HasNpx = true
	}

	switch {
	case privateKey == "":
		res.PrivateKeyErr = "not set"
	case validate.PrivateKey(privateKey) != nil:
		res.PrivateKeyErr = validate.PrivateKey(privateKey).Error()
	default:
		res.HasPrivateKey = true
	}

	for _, name := range contracts {
		_, err := artifacts.Find(artifactsDir, name)
		res.Artifacts[name] = err == nil
	}

	return res
}

// IsPortInUse reports whether something accepts TCP connections on
// host:port.
func IsPortInUse(host string, port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprint(port)), 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

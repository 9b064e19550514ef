package stubtest

import (
	"fmt"

	"github.com/flavioaiello/resource-stubifier/pkg/resource"
)

// Sub-resource and field names used by the canned hierarchies.
const (
	ConsoleMember = "console"
	PortMember    = "Port"
	ReadyField    = "subResourcesReady"
)

// Chain is a three level hierarchy Device -> Switch -> Router deriving from
// resource.Base. Real method bodies record hits on Probe and fail without a
// resource manager.
type Chain struct {
	Device *resource.Type
	Switch *resource.Type
	Router *resource.Type

	// Console is declared as a sub-resource of Router.
	Console *resource.Type
	// RouterData is the data-holder type of Router.
	RouterData *resource.Type

	Probe *Probe
}

// NewChain builds a fresh Chain.
func NewChain() *Chain {
	p := NewProbe()
	c := &Chain{Probe: p}

	c.Device = resource.NewType("Device", resource.Base)
	mustDefine(c.Device, "Connect", func(inst *resource.Instance) error {
		p.Hit("Device.Connect")
		return fmt.Errorf("%w: connect %s", resource.ErrNoResourceManager, inst.Name)
	}, "Open a session to the device.")
	mustDefine(c.Device, "Status", func(inst *resource.Instance) (any, error) {
		p.Hit("Device.Status")
		return nil, resource.ErrNoResourceManager
	}, "Return the device status.")

	c.Switch = resource.NewType("Switch", c.Device)
	mustDefine(c.Switch, "Reset", func(_ *resource.Instance, force bool) error {
		p.Hit("Switch.Reset")
		return resource.ErrNoResourceManager
	}, "Reset the switch.")
	mustDefine(c.Switch, "Ports", func(_ *resource.Instance) []any {
		p.Hit("Switch.Ports")
		return nil
	}, "List the switch ports.")

	c.Console = resource.NewType("Console", resource.Base)
	mustDefine(c.Console, "Send", func(_ *resource.Instance, line string) (any, error) {
		p.Hit("Console.Send")
		return nil, resource.ErrNoResourceManager
	}, "Send a line to the console.")

	c.RouterData = resource.NewType("RouterData", resource.Model)

	c.Router = resource.NewType("Router", c.Switch)
	c.Router.SetDataClass(c.RouterData)
	c.Router.SetMember(PortMember, resource.NewField(22))
	c.Router.SetMember(ConsoleMember, resource.NewNested(c.Console))
	mustDefine(c.Router, "Route", func(_ *resource.Instance, dst string, metrics ...int) (any, error) {
		p.Hit("Router.Route")
		return nil, resource.ErrNoResourceManager
	}, "Add a route.")
	mustDefine(c.Router, "Count", func(_ *resource.Instance) int {
		p.Hit("Router.Count")
		return 42
	}, "Count the routes.")
	mustDefine(c.Router, resource.HookSetSubResources, func(inst *resource.Instance) error {
		p.Hit("Router.SetSubResources")
		inst.Set(ReadyField, true)
		return nil
	}, "Mark the sub-resources ready.")

	return c
}

// Types returns the chain from most derived to least.
func (c *Chain) Types() []*resource.Type {
	return []*resource.Type{c.Router, c.Switch, c.Device}
}

// Diamond is a hierarchy Top(Left, Right), Left(Bottom), Right(Bottom)
// deriving from resource.Base.
type Diamond struct {
	Bottom *resource.Type
	Left   *resource.Type
	Right  *resource.Type
	Top    *resource.Type

	Probe *Probe
}

// NewDiamond builds a fresh Diamond.
func NewDiamond() *Diamond {
	p := NewProbe()
	d := &Diamond{Probe: p}

	d.Bottom = resource.NewType("Bottom", resource.Base)
	mustDefine(d.Bottom, "Power", func(_ *resource.Instance, on bool) error {
		p.Hit("Bottom.Power")
		return resource.ErrNoResourceManager
	}, "Switch the power.")

	d.Left = resource.NewType("Left", d.Bottom)
	mustDefine(d.Left, "Flash", func(_ *resource.Instance, image string) (any, error) {
		p.Hit("Left.Flash")
		return nil, resource.ErrNoResourceManager
	}, "Flash an image.")

	d.Right = resource.NewType("Right", d.Bottom)
	mustDefine(d.Right, "Measure", func(_ *resource.Instance) (any, error) {
		p.Hit("Right.Measure")
		return nil, resource.ErrNoResourceManager
	}, "Take a measurement.")

	d.Top = resource.NewType("Top", d.Left, d.Right)
	mustDefine(d.Top, "Run", func(_ *resource.Instance, args ...string) (any, error) {
		p.Hit("Top.Run")
		return nil, resource.ErrNoResourceManager
	}, "Run a job.")

	return d
}

func mustDefine(t *resource.Type, name string, fn any, doc string) {
	if err := t.DefineMethod(name, fn, doc); err != nil {
		panic(err)
	}
}

// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

const loopbackName = "lo"

// LoopbackAddr returns the address configured on the loopback interface
// with its broadcast derived from the mask.
func LoopbackAddr() *netlink.Addr {
	ipNet := &net.IPNet{
		IP:   net.IPv4(127, 0, 0, 1),
		Mask: net.CIDRMask(8, 32),
	}

	return &netlink.Addr{
		IPNet:     ipNet,
		Broadcast: broadcastAddr(ipNet),
		Scope:     int(netlink.SCOPE_HOST),
	}
}

// LoopbackRoute returns the host scoped route for 127.0.0.0/8 via the
// interface with the given index.
func LoopbackRoute(linkIndex int) *netlink.Route {
	return &netlink.Route{
		LinkIndex: linkIndex,
		Dst: &net.IPNet{
			IP:   net.IPv4(127, 0, 0, 0).To4(),
			Mask: net.CIDRMask(8, 32),
		},
		Scope: netlink.SCOPE_HOST,
	}
}

// ConfigureLoopback assigns 127.0.0.1/8, adds the host route and brings the
// loopback interface up. Already present addresses and routes are replaced,
// so it can be run repeatedly.
func ConfigureLoopback() error {
	link, err := netlink.LinkByName(loopbackName)
	if err != nil {
		return fmt.Errorf("get %s: %w", loopbackName, err)
	}

	if err := netlink.AddrReplace(link, LoopbackAddr()); err != nil {
		return fmt.Errorf("add address: %w", err)
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("set %s up: %w", loopbackName, err)
	}

	if err := netlink.RouteReplace(LoopbackRoute(link.Attrs().Index)); err != nil {
		return fmt.Errorf("add route: %w", err)
	}

	return nil
}

// WithLoopback returns a setup [Func] that wraps [ConfigureLoopback] and can
// be used with [Run].
func WithLoopback() Func {
	return func(_ context.Context, _ *State) error {
		return ConfigureLoopback()
	}
}

func broadcastAddr(ipNet *net.IPNet) net.IP {
	ip := ipNet.IP.To4()
	broadcast := make(net.IP, len(ip))

	for idx := range ip {
		broadcast[idx] = ip[idx] | ^ipNet.Mask[idx]
	}

	return broadcast
}

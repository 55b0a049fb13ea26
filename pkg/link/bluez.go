// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService      = "org.bluez"
	bluezDevice       = "org.bluez.Device1"
	dbusObjectManager = "org.freedesktop.DBus.ObjectManager"

	// SerialPortUUID identifies the Serial Port Profile.
	SerialPortUUID = "00001101-0000-1000-8000-00805f9b34fb"
)

// Device is a Bluetooth device known to BlueZ.
type Device struct {
	Address   string
	Name      string
	Paired    bool
	Connected bool
	SPP       bool // advertises the Serial Port Profile
}

// ListDevices returns paired devices that advertise the Serial Port Profile.
func ListDevices(ctx context.Context) ([]Device, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	obj := conn.Object(bluezService, "/")
	if err := obj.CallWithContext(ctx, dbusObjectManager+".GetManagedObjects", 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("failed to query BlueZ: %w", err)
	}

	var out []Device
	for _, d := range parseManagedObjects(objects) {
		if d.Paired && d.SPP {
			out = append(out, d)
		}
	}
	return out, nil
}

// parseManagedObjects picks the Device1 interfaces out of a BlueZ object tree.
func parseManagedObjects(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant) []Device {
	var out []Device
	for _, ifaces := range objects {
		props, ok := ifaces[bluezDevice]
		if !ok {
			continue
		}
		d := Device{
			Address:   variantString(props, "Address"),
			Name:      variantString(props, "Alias"),
			Paired:    variantBool(props, "Paired"),
			Connected: variantBool(props, "Connected"),
		}
		if d.Name == "" {
			d.Name = variantString(props, "Name")
		}
		if v, ok := props["UUIDs"]; ok {
			if uuids, ok := v.Value().([]string); ok {
				for _, u := range uuids {
					if strings.EqualFold(u, SerialPortUUID) {
						d.SPP = true
						break
					}
				}
			}
		}
		if d.Address != "" {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func variantString(props map[string]dbus.Variant, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func variantBool(props map[string]dbus.Variant, key string) bool {
	if v, ok := props[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

package config

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Subnet tiers. Each tier owns a block of subnet numbers inside the VPC so
// that adding availability zones never renumbers existing subnets.
const (
	SubnetPublic   = "public"
	SubnetApp      = "app"
	SubnetDatabase = "db"
)

// SubnetNewBits is the prefix extension applied to the VPC CIDR for every
// subnet (/16 VPC -> /24 subnets).
const SubnetNewBits = 8

var subnetNetnumBase = map[string]int{
	SubnetPublic:   0,
	SubnetApp:      10,
	SubnetDatabase: 20,
}

// SubnetTiers lists subnet tiers in creation order.
func SubnetTiers() []string {
	return []string{SubnetPublic, SubnetApp, SubnetDatabase}
}

// SubnetCIDR returns the CIDR of the index-th subnet of a tier.
func (c *Config) SubnetCIDR(tier string, index int) (string, error) {
	base, ok := subnetNetnumBase[tier]
	if !ok {
		return "", fmt.Errorf("unknown subnet tier %q", tier)
	}
	if index < 0 || index >= 10 {
		return "", fmt.Errorf("subnet index %d out of range for tier %s", index, tier)
	}
	return CIDRSubnet(c.Network.VPCCIDR, SubnetNewBits, base+index)
}

// CIDRSubnet calculates a subnet address given a network address, a netmask
// size increase and a subnet number, like Terraform's cidrsubnet.
// Only IPv4 is supported.
func CIDRSubnet(prefix string, newbits int, netnum int) (string, error) {
	_, network, err := net.ParseCIDR(prefix)
	if err != nil {
		return "", fmt.Errorf("invalid CIDR prefix: %w", err)
	}

	// Validate IPv4
	if network.IP.To4() == nil {
		return "", fmt.Errorf("only IPv4 addresses are supported, got IPv6: %s", prefix)
	}

	maskSize, totalBits := network.Mask.Size()
	newMaskSize := maskSize + newbits

	if newMaskSize > totalBits {
		return "", fmt.Errorf("prefix extension of %d bits is too large for %s", newbits, prefix)
	}

	maxSubnets := 1 << newbits
	if netnum < 0 || netnum >= maxSubnets {
		return "", fmt.Errorf("subnet number %d exceeds max subnets %d", netnum, maxSubnets)
	}

	ip := network.IP
	if ip.To4() != nil {
		ip = ip.To4()
	}

	ipInt := bigIntFromIP(ip)

	subnetSize := 1 << (totalBits - newMaskSize)

	offset := netnum * subnetSize

	// #nosec G115
	ipInt += uint64(offset)

	newIP := ipFromBigInt(ipInt)

	return fmt.Sprintf("%s/%d", newIP.String(), newMaskSize), nil
}

// CIDRHost calculates a host address inside prefix, like Terraform's
// cidrhost. A negative hostnum counts from the end of the range.
func CIDRHost(prefix string, hostnum int) (string, error) {
	_, network, err := net.ParseCIDR(prefix)
	if err != nil {
		return "", fmt.Errorf("invalid CIDR prefix: %w", err)
	}

	// Validate IPv4
	if network.IP.To4() == nil {
		return "", fmt.Errorf("only IPv4 addresses are supported, got IPv6: %s", prefix)
	}

	maskSize, totalBits := network.Mask.Size()

	hostBits := totalBits - maskSize
	maxHosts := uint64(1) << hostBits

	var offset uint64
	if hostnum < 0 {
		absHostNum := uint64(-hostnum)
		if absHostNum > maxHosts {
			return "", fmt.Errorf("host number %d exceeds max hosts %d", hostnum, maxHosts)
		}
		offset = maxHosts - absHostNum
	} else {
		offset = uint64(hostnum)
		if offset >= maxHosts {
			return "", fmt.Errorf("host number %d exceeds max hosts %d", hostnum, maxHosts)
		}
	}

	ip := network.IP
	if ip.To4() != nil {
		ip = ip.To4()
	}
	ipInt := bigIntFromIP(ip)
	ipInt += offset

	newIP := ipFromBigInt(ipInt)
	return newIP.String(), nil
}

// bigIntFromIP converts an IP address to uint64.
// Only supports IPv4 addresses.
func bigIntFromIP(ip net.IP) uint64 {
	if len(ip) == 16 {
		if ip4 := ip.To4(); ip4 != nil {
			return uint64(binary.BigEndian.Uint32(ip4))
		}
		return 0
	}
	return uint64(binary.BigEndian.Uint32(ip))
}

// ipFromBigInt converts a uint64 value back to an IPv4 address.
func ipFromBigInt(val uint64) net.IP {
	ip := make(net.IP, 4)
	// #nosec G115
	binary.BigEndian.PutUint32(ip, uint32(val))
	return ip
}

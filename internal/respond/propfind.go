package respond

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/dandidav/gateway/internal/gatewayerr"
)

// Depth is the decoded value of the PROPFIND Depth header.
type Depth int

const (
	DepthZero Depth = iota
	DepthOne
	DepthInfinity
)

// ParseDepth decodes a Depth header value. A missing header is treated
// as "infinity" per RFC 4918 §14 and this spec's §4.7.
func ParseDepth(header string) (Depth, error) {
	switch strings.TrimSpace(header) {
	case "":
		return DepthInfinity, nil
	case "0":
		return DepthZero, nil
	case "1":
		return DepthOne, nil
	case "infinity":
		return DepthInfinity, nil
	default:
		return DepthInfinity, gatewayerr.New(gatewayerr.BadRequest, "respond.ParseDepth", nil)
	}
}

// propfindWire is the raw XML shape of a PROPFIND request body.
type propfindWire struct {
	XMLName  xml.Name  `xml:"propfind"`
	AllProp  *struct{} `xml:"allprop"`
	PropName *struct{} `xml:"propname"`
	Prop     *struct {
		Names []xml.Name `xml:",any"`
	} `xml:"prop"`
}

// PropfindMode distinguishes the three PROPFIND request shapes RFC
// 4918 §14 defines.
type PropfindMode int

const (
	ModeAllProp PropfindMode = iota
	ModePropName
	ModeProp
)

// PropfindRequest is the decoded request body.
type PropfindRequest struct {
	Mode  PropfindMode
	Names []string // only meaningful when Mode == ModeProp
}

// ParsePropfindBody decodes a PROPFIND request body. An empty body is
// equivalent to allprop, per §4.7. The include child of allprop is
// accepted (in either element order) but its names are folded into
// the allprop response since every live property this server
// supports is always returned.
func ParsePropfindBody(r io.Reader) (PropfindRequest, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return PropfindRequest{}, gatewayerr.New(gatewayerr.BadRequest, "respond.ParsePropfindBody", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return PropfindRequest{Mode: ModeAllProp}, nil
	}

	var wire propfindWire
	if err := xml.Unmarshal(body, &wire); err != nil {
		return PropfindRequest{}, gatewayerr.New(gatewayerr.BadRequest, "respond.ParsePropfindBody", err)
	}

	switch {
	case wire.PropName != nil:
		return PropfindRequest{Mode: ModePropName}, nil
	case wire.Prop != nil:
		names := make([]string, 0, len(wire.Prop.Names))
		for _, n := range wire.Prop.Names {
			names = append(names, n.Local)
		}
		return PropfindRequest{Mode: ModeProp, Names: names}, nil
	default:
		return PropfindRequest{Mode: ModeAllProp}, nil
	}
}

// supportedLiveProperties are the only property names this server
// knows how to answer; anything else resolves to 404 within its own
// propstat group (§6).
var supportedLiveProperties = map[string]struct{}{
	"creationdate":        {},
	"displayname":         {},
	"getcontentlanguage":  {},
	"getcontentlength":    {},
	"getcontenttype":      {},
	"getetag":             {},
	"getlastmodified":     {},
	"resourcetype":        {},
}

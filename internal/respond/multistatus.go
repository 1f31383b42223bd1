package respond

import (
	"encoding/xml"
	"net/http"

	"github.com/dandidav/gateway/internal/resource"
)

// msResourceType carries the empty or <collection/> child placed
// inside <resourcetype>: a nil Collection pointer leaves it empty.
type msResourceType struct {
	Collection *struct{} `xml:"D:collection,omitempty"`
}

type msProp struct {
	CreationDate       string          `xml:"D:creationdate,omitempty"`
	DisplayName        string          `xml:"D:displayname,omitempty"`
	ContentLanguage    string          `xml:"D:getcontentlanguage,omitempty"`
	ContentLength      string          `xml:"D:getcontentlength,omitempty"`
	ContentType        string          `xml:"D:getcontenttype,omitempty"`
	ETag               string          `xml:"D:getetag,omitempty"`
	LastModified       string          `xml:"D:getlastmodified,omitempty"`
	ResourceType       *msResourceType `xml:"D:resourcetype"`
}

type msPropNoValues struct {
	CreationDate    *struct{} `xml:"D:creationdate"`
	DisplayName     *struct{} `xml:"D:displayname"`
	ContentLanguage *struct{} `xml:"D:getcontentlanguage"`
	ContentLength   *struct{} `xml:"D:getcontentlength"`
	ContentType     *struct{} `xml:"D:getcontenttype"`
	ETag            *struct{} `xml:"D:getetag"`
	LastModified    *struct{} `xml:"D:getlastmodified"`
	ResourceType    *struct{} `xml:"D:resourcetype"`
}

type msPropStat struct {
	Prop   any    `xml:"D:prop"`
	Status string `xml:"D:status"`
}

type msUnknownProp struct {
	Names []xml.Name `xml:",any"`
}

type msResponse struct {
	Href      string       `xml:"D:href"`
	PropStats []msPropStat `xml:"D:propstat"`
}

type msMultistatus struct {
	XMLName   xml.Name     `xml:"D:multistatus"`
	XMLNS     string       `xml:"xmlns:D,attr"`
	Responses []msResponse `xml:"D:response"`
}

// RenderMultistatus writes a 207 response for resources (the target
// plus, for a deep request, its children), honoring the requested
// PROPFIND mode (§4.7, §6).
func (r *Responder) RenderMultistatus(w http.ResponseWriter, resources []resource.Resource, req PropfindRequest) {
	r.WriteUniversalHeaders(w)

	ms := msMultistatus{XMLNS: "DAV:"}
	for _, res := range resources {
		ms.Responses = append(ms.Responses, buildResponse(res, req))
	}

	body, err := xml.MarshalIndent(ms, "", "  ")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

func buildResponse(res resource.Resource, req PropfindRequest) msResponse {
	resp := msResponse{Href: res.Href}

	if req.Mode == ModePropName {
		resp.PropStats = append(resp.PropStats, msPropStat{
			Prop:   allPropertyNames(),
			Status: "HTTP/1.1 200 OK",
		})
		return resp
	}

	found := buildProp(res)
	resp.PropStats = append(resp.PropStats, msPropStat{Prop: found, Status: "HTTP/1.1 200 OK"})

	if req.Mode == ModeProp {
		var unknown []xml.Name
		for _, name := range req.Names {
			if _, ok := supportedLiveProperties[name]; !ok {
				unknown = append(unknown, xml.Name{Local: name})
			}
		}
		if len(unknown) > 0 {
			resp.PropStats = append(resp.PropStats, msPropStat{
				Prop:   msUnknownProp{Names: unknown},
				Status: "HTTP/1.1 404 Not Found",
			})
		}
	}

	return resp
}

func allPropertyNames() msPropNoValues {
	return msPropNoValues{
		CreationDate:    &struct{}{},
		DisplayName:     &struct{}{},
		ContentLanguage: &struct{}{},
		ContentLength:   &struct{}{},
		ContentType:     &struct{}{},
		ETag:            &struct{}{},
		LastModified:    &struct{}{},
		ResourceType:    &struct{}{},
	}
}

func buildProp(res resource.Resource) msProp {
	prop := msProp{
		DisplayName:     res.Name,
		ContentLanguage: res.Language,
		ContentType:     res.ContentType,
		ETag:            res.ETag,
	}
	if res.IsCollection() {
		prop.ResourceType = &msResourceType{Collection: &struct{}{}}
	} else {
		prop.ResourceType = &msResourceType{}
	}
	if res.Size != nil {
		prop.ContentLength = uintToString(*res.Size)
	}
	if res.Created != nil {
		prop.CreationDate = FormatRFC3339(*res.Created)
	}
	if res.Modified != nil {
		prop.LastModified = FormatRFC1123(*res.Modified)
	}
	return prop
}

func uintToString(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

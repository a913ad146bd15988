package kml

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// InProgressSuffix marks the unfinished line in an exported document so it
// is distinguishable from completed tracks.
const InProgressSuffix = " (belum selesai)"

type kmlDocument struct {
	XMLName    xml.Name       `xml:"kml"`
	Xmlns      string         `xml:"xmlns,attr"`
	Name       string         `xml:"Document>name"`
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
}

type kmlPlacemark struct {
	Name       string         `xml:"name"`
	Point      *kmlPoint      `xml:"Point,omitempty"`
	LineString *kmlLineString `xml:"LineString,omitempty"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

// Render serializes the payload plus the optional in-progress line into a
// KML document. Export is non-destructive; the caller keeps the payload
// untouched.
func Render(data *Data, current *Line, documentName string) ([]byte, error) {
	doc := kmlDocument{
		Xmlns: "http://www.opengis.net/kml/2.2",
		Name:  documentName,
	}

	for _, pm := range data.Placemarks {
		doc.Placemarks = append(doc.Placemarks, kmlPlacemark{
			Name:  pm.Name,
			Point: &kmlPoint{Coordinates: coordinate(pm.Longitude, pm.Latitude)},
		})
	}

	for _, line := range data.Lines {
		doc.Placemarks = append(doc.Placemarks, linePlacemark(line, ""))
	}

	if current != nil && len(current.Points) >= 2 {
		doc.Placemarks = append(doc.Placemarks, linePlacemark(*current, InProgressSuffix))
	}

	raw, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render kml document: %w", err)
	}
	return append([]byte(xml.Header), raw...), nil
}

func linePlacemark(line Line, suffix string) kmlPlacemark {
	coords := make([]string, 0, len(line.Points))
	for _, p := range line.Points {
		coords = append(coords, coordinate(p.Longitude, p.Latitude))
	}
	return kmlPlacemark{
		Name: line.Name + suffix,
		LineString: &kmlLineString{
			Tessellate:  1,
			Coordinates: strings.Join(coords, " "),
		},
	}
}

func coordinate(lon, lat float64) string {
	return fmt.Sprintf("%g,%g,0", lon, lat)
}

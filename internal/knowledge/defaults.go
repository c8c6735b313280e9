package knowledge

// defaultBook returns the built-in Chennai civic knowledge set used when no
// knowledge file is configured: civic bodies, their services, common
// complaint relations, and the detailed application procedures.
func defaultBook() fileData {
	return fileData{
		Version: 1,
		Departments: []Department{
			{ID: "gcc", Name: "Greater Chennai Corporation", Type: "government", Contact: "1913"},
			{ID: "cmwssb", Name: "Chennai Metro Water Supply and Sewerage Board", Type: "government", Contact: "044-45674567"},
			{ID: "tneb", Name: "Tamil Nadu Electricity Board", Type: "government", Contact: "044-25675765"},
			{ID: "tn_police", Name: "Tamil Nadu Police", Type: "government", Contact: "100"},
			{ID: "fire_dept", Name: "Fire Department", Type: "emergency", Contact: "101"},
			{ID: "health_dept", Name: "Health Department", Type: "government", Contact: "044-25384680"},
		},
		Services: []Service{
			{ID: "water_supply", Name: "Water Supply", Department: "cmwssb"},
			{ID: "sewage", Name: "Sewage Management", Department: "cmwssb"},
			{ID: "property_tax", Name: "Property Tax", Department: "gcc"},
			{ID: "waste_mgmt", Name: "Waste Management", Department: "gcc"},
			{ID: "street_lights", Name: "Street Lighting", Department: "gcc"},
			{ID: "roads", Name: "Road Maintenance", Department: "gcc"},
			{ID: "electricity", Name: "Electricity", Department: "tneb"},
			{ID: "birth_cert", Name: "Birth Certificate", Department: "gcc"},
			{ID: "death_cert", Name: "Death Certificate", Department: "gcc"},
		},
		Issues: []Issue{
			{ID: "no_water", Name: "No Water Supply", Service: "water_supply", Terms: []string{"no water", "water problem", "water not coming"}},
			{ID: "water_contamination", Name: "Water Contamination", Service: "water_supply", Terms: []string{"water contamination", "contaminated water", "dirty water"}},
			{ID: "pipeline_leak", Name: "Pipeline Leak", Service: "water_supply", Terms: []string{"pipeline leak", "pipe leak", "leakage"}},
			{ID: "sewage_overflow", Name: "Sewage Overflow", Service: "sewage", Terms: []string{"sewage overflow", "sewage"}},
			{ID: "blocked_drain", Name: "Blocked Drain", Service: "sewage", Terms: []string{"blocked drain", "drain blocked", "drainage"}},
			{ID: "garbage_not_collected", Name: "Garbage Not Collected", Service: "waste_mgmt", Terms: []string{"garbage not collected", "garbage", "waste"}},
			{ID: "street_light_not_working", Name: "Street Light Not Working", Service: "street_lights", Terms: []string{"street light not working", "street light"}},
			{ID: "pothole", Name: "Pothole on Road", Service: "roads", Terms: []string{"pothole", "road damage", "bad road"}},
			{ID: "power_cut", Name: "Power Cut", Service: "electricity", Terms: []string{"power cut", "no power", "power failure", "electricity problem"}},
		},
		Procedures: []Procedure{
			{
				ID:           "water_connection_new",
				Title:        "Apply for New Water Connection",
				Department:   "cmwssb",
				ServiceTerms: []string{"water connection", "new water connection", "apply water"},
				ActionTerms:  []string{"apply", "new", "get", "obtain", "connection"},
				Steps: []Step{
					{Label: "Visit CMWSSB", Detail: "Visit the CMWSSB website or your nearest area office."},
					{Label: "Fill Form No. 1", Detail: "Fill Form No. 1, the New Connection Application."},
					{Label: "Submit documents", Detail: "Submit the required documents: property tax receipt, ID proof, and address proof."},
					{Label: "Pay connection charges", Detail: "Pay the connection charges: ₹1,500 for 15mm, ₹2,500 for 20mm, ₹4,000 for 25mm."},
					{Label: "Schedule inspection", Detail: "Schedule the site inspection with the area engineer."},
					{Label: "Receive connection", Detail: "The connection is provided within 15 working days."},
				},
				Documents: []string{"Property tax receipt", "ID proof", "Address proof", "Property ownership documents"},
				Fees:      "₹1,500 (15mm), ₹2,500 (20mm), ₹4,000 (25mm)",
				Timeline:  "15 working days",
				Contact:   "044-28451300",
			},
			{
				ID:           "property_tax_payment",
				Title:        "Pay Property Tax Online",
				Department:   "gcc",
				ServiceTerms: []string{"property tax", "tax payment", "pay tax"},
				ActionTerms:  []string{"pay", "payment", "online", "due"},
				Steps: []Step{
					{Label: "Open the portal", Detail: "Visit the Chennai Corporation website."},
					{Label: "Go to Property Tax", Detail: "Click Online Services, then Property Tax."},
					{Label: "Find your property", Detail: "Enter the Property Assessment Number or search by owner name."},
					{Label: "Verify details", Detail: "Verify the property details shown."},
					{Label: "Choose payment method", Detail: "Select net banking, card, or UPI."},
					{Label: "Pay and download", Detail: "Make the payment and download the receipt."},
				},
				Documents: []string{"Property Assessment Number", "Mobile number for OTP"},
				Fees:      "As per assessment",
				Timeline:  "Immediate",
				Contact:   "1913",
			},
			{
				ID:           "street_light_repair",
				Title:        "Report Street Light Not Working",
				Department:   "gcc",
				ServiceTerms: []string{"street light", "street lamp", "light repair"},
				ActionTerms:  []string{"report", "repair", "complaint", "fix", "working", "broken"},
				Steps: []Step{
					{Label: "Call the helpline", Detail: "Call the Chennai Corporation helpline: 1913."},
					{Label: "Give the location", Detail: "Provide the exact location details of the faulty light."},
					{Label: "Note the reference", Detail: "Note the complaint reference number."},
					{Label: "Track the status", Detail: "Track the complaint status online or by phone."},
					{Label: "Follow up", Detail: "Follow up if the light is not fixed within 3 days."},
				},
				Documents: []string{"Location details"},
				Fees:      "Free",
				Timeline:  "3-5 working days",
				Contact:   "1913",
			},
			{
				ID:           "birth_certificate",
				Title:        "Apply for Birth Certificate",
				Department:   "gcc",
				ServiceTerms: []string{"birth certificate", "birth cert"},
				ActionTerms:  []string{"apply", "get", "obtain", "download", "application"},
				Steps: []Step{
					{Label: "Open the citizen portal", Detail: "Visit the Chennai Corporation citizen portal."},
					{Label: "Fill the application", Detail: "Fill the online application with the child's details."},
					{Label: "Upload hospital record", Detail: "Upload the hospital birth certificate."},
					{Label: "Upload ID proofs", Detail: "Upload the parents' ID proofs."},
					{Label: "Pay the fee", Detail: "Pay the online fee of ₹15."},
					{Label: "Collect the certificate", Detail: "Download the certificate, or collect it from the zonal office."},
				},
				Documents: []string{"Hospital birth certificate", "Parents' ID proof", "Address proof"},
				Fees:      "₹15",
				Timeline:  "Immediate (online) or 3 days (office)",
				Contact:   "044-25384680",
			},
		},
	}
}

package premierinn

// The three GraphQL documents used against the Premier Inn endpoint. The
// endpoint is unversioned; these match the operations the booking site
// itself issues.

const findBookingQuery = `
query findBookingQuery($findBookingCriteria: FindBookingCriteria!){
    findBooking(findBookingCriteria: $findBookingCriteria){
      cookieName
      token
      minutesTillExpiry
      basketReference
    }
  }
`

const bookingConfirmationQuery = `
  query bookingConfirmation(
    $basketReference: String!
    $language: String!
    $country: String!
    $bookingChannel: String
  ) {
    bookingConfirmation(
      basketReference: $basketReference
      language: $language
      country: $country
      bookingChannel: $bookingChannel
    ) {
      reservationByIdList {
        reservationId
        reservationGuestList {
          givenName
          surName
        }
        roomStay {
          checkInTime
          checkOutTime
          ratePlanCode
          arrivalDate
          departureDate
          bookingChannel
          roomPrice
          cot
          adultsNumber
          roomExtraInfo {
            roomName
          }
          childrenNumber
        }
        reservationOverrideReasons {
          reasonCode
          callerName
          managerName
          reasonName
        }
        reservationOverridden
        guaranteeCode
        reservationStatus
        additionalGuestInfo {
          purposeOfStay
        }
      }
      balanceOutstanding
      currencyCode
      newTotal
      policyCode
      previousTotal
      totalCost
      hotelId
      hotelName
      rateMessage
      bookingReference
      basketReference
    }
  }
`

const getHotelInformationQuery = `
  query GetHotelInformation($hotelId: String!, $country: String!, $language: String!) {
    hotelInformation(hotelId: $hotelId, country: $country, language: $language) {
      address {
        addressLine1
        addressLine2
        addressLine3
        addressLine4
        postalCode
        country
      }
      hotelId
      hotelOpeningDate
      name
      brand
      parkingDescription
      directions
      county
      contactDetails {
        phone
        hotelNationalPhone
        email
      }
      coordinates {
        latitude
        longitude
      }
      importantInfo {
        title
        infoItems {
          text
          priority
          startDate
          endDate
        }
      }
    }
  }
`
